package server

import (
	"encoding/json"
	"net/http"
)

type mergeCoreRequest struct {
	UserID      string `json:"user_id"`
	Information string `json:"information"`
}

func (s *Server) handleMergeCoreInformation(w http.ResponseWriter, r *http.Request) {
	var req mergeCoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Information == "" {
		writeError(w, http.StatusBadRequest, "user_id and information are required")
		return
	}

	blob, err := s.service.MergeCoreInformation(r.Context(), req.UserID, req.Information)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to merge core information")
		writeError(w, http.StatusBadGateway, "failed to merge core information")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"core_information": blob})
}

type contextMemoryRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

func (s *Server) handleAddContextualMemory(w http.ResponseWriter, r *http.Request) {
	var req contextMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	if err := s.service.AddContextualMemory(r.Context(), req.UserID, req.Text); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to store contextual memory")
		writeError(w, http.StatusBadGateway, "failed to store contextual memory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
