package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printcraft/personalization/internal/pkg/logger"
	"github.com/printcraft/personalization/internal/store"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTemplates(r.Context())
	if err != nil {
		logger.Error("templates: list failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if list == nil {
		list = []store.EmailTemplate{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": list})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl store.EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(tmpl.Name) == "" || strings.TrimSpace(tmpl.Subject) == "" {
		writeError(w, http.StatusBadRequest, "name and subject are required")
		return
	}

	if err := s.store.CreateTemplate(r.Context(), &tmpl); err != nil {
		logger.Error("templates: create failed", "name", tmpl.Name, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}

	tmpl, err := s.store.GetTemplate(r.Context(), templateID)
	if err != nil {
		logger.Error("templates: get failed", "template_id", templateID.String(), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	if tmpl == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}

	var tmpl store.EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tmpl.ID = templateID

	if err := s.store.UpdateTemplate(r.Context(), &tmpl); err != nil {
		logger.Error("templates: update failed", "template_id", templateID.String(), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to update template")
		return
	}

	// Parsed Liquid templates are cached by key; edits must drop stale entries.
	s.liquid.ClearCache()

	writeJSON(w, http.StatusOK, tmpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}

	if err := s.store.DeleteTemplate(r.Context(), templateID); err != nil {
		logger.Error("templates: delete failed", "template_id", templateID.String(), "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	s.liquid.ClearCache()

	w.WriteHeader(http.StatusNoContent)
}
