package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attestra/formtrail/internal/auth"
	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/service"
)

type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// projectSettingsRequest is the write-side settings shape. SigningKey is
// accepted here but never rendered back: the model redacts it on output.
type projectSettingsRequest struct {
	RevisionsEnabled bool   `json:"revisionsEnabled"`
	ESignEnabled     bool   `json:"esignEnabled"`
	SigningKey       string `json:"signingKey"`
}

func (r projectSettingsRequest) toModel() models.ProjectSettings {
	return models.ProjectSettings{
		RevisionsEnabled: r.RevisionsEnabled,
		ESignEnabled:     r.ESignEnabled,
		SigningKey:       r.SigningKey,
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string                 `json:"name"`
		Settings projectSettingsRequest `json:"settings"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	project, err := h.svc.Create(r.Context(), req.Name, req.Settings.toModel(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectId")
	project, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectId")
	var req struct {
		Name     string                  `json:"name"`
		Settings *projectSettingsRequest `json:"settings"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var settings *models.ProjectSettings
	if req.Settings != nil {
		m := req.Settings.toModel()
		settings = &m
	}
	project, err := h.svc.Update(r.Context(), id, req.Name, settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectId")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
