package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/companiond/summaries"
)

type generateSummaryRequest struct {
	UserID           string `json:"user_id"`
	Date             string `json:"date"` // yyyy-MM-dd in the user's local time
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
}

type summaryResponse struct {
	UserID    string         `json:"user_id"`
	Date      string         `json:"date"`
	Summary   string         `json:"summary"`
	Scores    map[string]int `json:"scores"`
	Analysis  string         `json:"analysis"`
	CreatedAt time.Time      `json:"created_at"`
}

func toSummaryResponse(ds summaries.DailySummary) summaryResponse {
	return summaryResponse{
		UserID:    ds.UserID,
		Date:      ds.Date,
		Summary:   ds.SummaryText,
		Scores:    ds.Scores,
		Analysis:  ds.AnalysisText,
		CreatedAt: ds.CreatedAt,
	}
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req generateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "user_id and date are required")
		return
	}

	ds, err := s.service.GenerateDailySummary(r.Context(), req.UserID, req.Date, req.UTCOffsetSeconds)
	switch {
	case errors.Is(err, summaries.ErrCannotGenerate):
		// Precondition violations are reported distinctly, never downgraded.
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", req.UserID).Str("date", req.Date).Msg("Summary generation failed")
		writeError(w, http.StatusBadGateway, "summary generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, toSummaryResponse(*ds))
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		ds, err := s.summaries.Get(r.Context(), userID, date)
		switch {
		case errors.Is(err, summaries.ErrNotFound):
			writeError(w, http.StatusNotFound, "summary not found")
		case err != nil:
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load summary")
			writeError(w, http.StatusInternalServerError, "failed to load summary")
		default:
			writeJSON(w, http.StatusOK, toSummaryResponse(*ds))
		}
		return
	}

	items, err := s.summaries.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list summaries")
		writeError(w, http.StatusInternalServerError, "failed to list summaries")
		return
	}

	out := make([]summaryResponse, len(items))
	for i, item := range items {
		out[i] = toSummaryResponse(item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": out})
}

func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	date := r.URL.Query().Get("date")
	if userID == "" || date == "" {
		writeError(w, http.StatusBadRequest, "user_id and date are required")
		return
	}

	err := s.summaries.Delete(r.Context(), userID, date)
	switch {
	case errors.Is(err, summaries.ErrNotFound):
		writeError(w, http.StatusNotFound, "summary not found")
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", userID).Str("date", date).Msg("Failed to delete summary")
		writeError(w, http.StatusInternalServerError, "failed to delete summary")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
