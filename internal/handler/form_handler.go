package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attestra/formtrail/internal/auth"
	"github.com/attestra/formtrail/internal/models"
	"github.com/attestra/formtrail/internal/service"
)

type FormHandler struct {
	svc *service.FormService
}

func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	forms, err := h.svc.List(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID        string              `json:"projectId"`
		Name             string              `json:"name"`
		Title            string              `json:"title"`
		Components       []models.Component  `json:"components"`
		Settings         map[string]any      `json:"settings"`
		Controller       string              `json:"controller"`
		ESign            *models.ESignConfig `json:"esign"`
		RevisionsEnabled bool                `json:"revisionsEnabled"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	form, err := h.svc.Create(r.Context(), req.ProjectID, req.Name, req.Title, req.Components, req.Settings, req.Controller, req.ESign, req.RevisionsEnabled, claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	form, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, form)
}

type formUpdateRequest struct {
	service.FormUpdate
	Note string `json:"note"`
}

func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	var req formUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	form, err := h.svc.Update(r.Context(), id, req.FormUpdate, claims.UserID, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	var req formUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	rev, err := h.svc.SaveDraft(r.Context(), id, req.FormUpdate, claims.UserID, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *FormHandler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	var req struct {
		Note string `json:"note"`
	}
	// Body is optional for publish.
	_ = readJSON(r, &req)
	claims := auth.GetUser(r.Context())
	rev, err := h.svc.PublishDraft(r.Context(), id, claims.UserID, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *FormHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	revs, err := h.svc.ListRevisions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *FormHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	version := chi.URLParam(r, "version")
	rev, err := h.svc.GetRevision(r.Context(), id, version)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
