package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type chatRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	answer, err := s.service.AnswerTurn(r.Context(), req.UserID, req.Message, req.Location)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Chat turn failed")
		writeError(w, http.StatusBadGateway, "failed to generate a response")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

type welcomeRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	var req welcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	answer, err := s.service.Welcome(r.Context(), req.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Welcome generation failed")
		writeError(w, http.StatusBadGateway, "failed to generate a greeting")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

type historyTurn struct {
	Text      string    `json:"text"`
	FromUser  bool      `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	turns, err := s.service.History(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load chat history")
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	out := make([]historyTurn, len(turns))
	for i, t := range turns {
		out[i] = historyTurn{Text: t.Text, FromUser: t.FromUser, Timestamp: t.CreatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": out})
}
