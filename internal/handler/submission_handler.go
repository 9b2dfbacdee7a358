package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/attestra/formtrail/internal/auth"
	"github.com/attestra/formtrail/internal/service"
)

type SubmissionHandler struct {
	svc *service.SubmissionService
}

func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	skip, _ := strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit == 0 {
		limit = 20
	}

	subs, total, err := h.svc.List(r.Context(), formID, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total":       total,
		"skip":        skip,
		"limit":       limit,
	})
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	var req struct {
		Data  map[string]any `json:"data"`
		State string         `json:"state"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	sub, err := h.svc.Create(r.Context(), formID, req.Data, req.State, claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	sub, err := h.svc.Get(r.Context(), subID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	var req struct {
		Data  map[string]any `json:"data"`
		State string         `json:"state"`
		Note  string         `json:"note"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims := auth.GetUser(r.Context())
	sub, err := h.svc.Update(r.Context(), subID, req.Data, req.State, claims.UserID, req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	if err := h.svc.Delete(r.Context(), subID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": subID})
}

func (h *SubmissionHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	revs, err := h.svc.Revisions(r.Context(), subID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *SubmissionHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	version := chi.URLParam(r, "version")
	rev, err := h.svc.GetRevision(r.Context(), subID, version)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *SubmissionHandler) Sign(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	claims := auth.GetUser(r.Context())
	ids, err := h.svc.Sign(r.Context(), subID, claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signatures": ids})
}

func (h *SubmissionHandler) Signatures(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	statuses, err := h.svc.Signatures(r.Context(), subID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}
