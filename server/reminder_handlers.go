package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/companiond/reminders"
)

type createReminderRequest struct {
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueAt       string   `json:"due_at"` // RFC 3339
	Tags        []string `json:"tags,omitempty"`
}

type reminderResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
	Tags        []string  `json:"tags"`
	Status      string    `json:"status"`
}

func toReminderResponse(r reminders.Reminder) reminderResponse {
	tags := make([]string, len(r.Tags))
	for i, tag := range r.Tags {
		tags[i] = string(tag)
	}
	return reminderResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		DueAt:       r.DueAt,
		Tags:        tags,
		Status:      string(r.Status),
	}
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	dueAt, err := time.Parse(time.RFC3339, req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be RFC 3339")
		return
	}

	var tags []reminders.Tag
	for _, raw := range req.Tags {
		if tag, ok := reminders.ParseTag(raw); ok {
			tags = append(tags, tag)
		}
	}

	rem := reminders.Reminder{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       dueAt,
		Tags:        tags,
	}
	if err := s.reminders.Save(r.Context(), &rem); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create reminder")
		writeError(w, http.StatusInternalServerError, "failed to create reminder")
		return
	}
	writeJSON(w, http.StatusCreated, toReminderResponse(rem))
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	items, err := s.reminders.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list reminders")
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}

	out := make([]reminderResponse, len(items))
	for i, item := range items {
		out[i] = toReminderResponse(item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": out})
}

type extractRemindersRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) handleExtractReminders(w http.ResponseWriter, r *http.Request) {
	var req extractRemindersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	saved, err := s.service.ExtractReminders(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("Reminder extraction failed")
		writeError(w, http.StatusBadGateway, "reminder extraction failed")
		return
	}

	out := make([]reminderResponse, len(saved))
	for i, item := range saved {
		out[i] = toReminderResponse(item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": out})
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.reminders.MarkComplete(r.Context(), id)
	switch {
	case errors.Is(err, reminders.ErrNotFound):
		writeError(w, http.StatusNotFound, "reminder not found")
	case err != nil:
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to complete reminder")
		writeError(w, http.StatusInternalServerError, "failed to complete reminder")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.reminders.Delete(r.Context(), id)
	switch {
	case errors.Is(err, reminders.ErrNotFound):
		writeError(w, http.StatusNotFound, "reminder not found")
	case err != nil:
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to delete reminder")
		writeError(w, http.StatusInternalServerError, "failed to delete reminder")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
