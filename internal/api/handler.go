// Package api is the admin HTTP surface: health, metrics and manual share
// operations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"autoshare/internal/domain"
)

// ShareService is the subset of the pipeline the handlers drive.
type ShareService interface {
	Get(ctx context.Context, shareID string) (*domain.ShareRecord, error)
	Approve(ctx context.Context, shareID string) (*domain.ShareRecord, error)
	Dismiss(ctx context.Context, shareID string) (*domain.ShareRecord, error)
}

type ShareHandler struct {
	service ShareService
	logger  *slog.Logger
}

func NewShareHandler(service ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		service: service,
		logger:  logger.With("component", "api"),
	}
}

type snapshotResponse struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Excerpt  string `json:"excerpt,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type shareResponse struct {
	ID               string                      `json:"id"`
	OwnerID          string                      `json:"owner_id"`
	Status           domain.Status               `json:"status"`
	Snapshot         snapshotResponse            `json:"snapshot"`
	GeneratedCaption *string                     `json:"generated_caption,omitempty"`
	Outcomes         []domain.DestinationOutcome `json:"outcomes"`
	Error            string                      `json:"error,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	ProcessedAt      *time.Time                  `json:"processed_at,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toResponse(rec *domain.ShareRecord) shareResponse {
	outcomes := rec.Outcomes
	if outcomes == nil {
		outcomes = []domain.DestinationOutcome{}
	}
	return shareResponse{
		ID:      rec.ID,
		OwnerID: rec.OwnerID,
		Status:  rec.Status,
		Snapshot: snapshotResponse{
			Title:    rec.Snapshot.Title,
			Link:     rec.Snapshot.Link,
			Excerpt:  rec.Snapshot.Excerpt,
			ImageURL: rec.Snapshot.ImageURL,
		},
		GeneratedCaption: rec.GeneratedCaption,
		Outcomes:         outcomes,
		Error:            rec.Error,
		CreatedAt:        rec.CreatedAt,
		ProcessedAt:      rec.ProcessedAt,
	}
}

// GetShare returns a share record with its destination outcomes.
// GET /shares/{id}
func (h *ShareHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(rec))
}

// ApproveShare publishes a draft.
// POST /shares/{id}/approve
func (h *ShareHandler) ApproveShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.service.Approve(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("share approved", "share_id", id, "status", rec.Status)
	writeJSON(w, http.StatusOK, toResponse(rec))
}

// DismissShare skips a draft or queued share.
// POST /shares/{id}/dismiss
func (h *ShareHandler) DismissShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.service.Dismiss(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("share dismissed", "share_id", id)
	writeJSON(w, http.StatusOK, toResponse(rec))
}

func (h *ShareHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "share not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrStaleState):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "STALE_STATE", Message: err.Error()})
	default:
		h.logger.Error("internal server error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
