package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardforge/internal/ratelimit/models"
	dErrors "cardforge/pkg/domain-errors"
	"cardforge/pkg/platform/httputil"
	"cardforge/pkg/validation"
)

// Service exposes the admission operations used by admin endpoints.
type Service interface {
	Usage(ctx context.Context, identity string, action models.Action) (count, limit int, err error)
	Reset(ctx context.Context, identity string, action models.Action) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterAdmin mounts the quota admin routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/quota/{action}", h.HandleUsage)
	r.Post("/admin/quota/reset", h.HandleReset)
}

// UsageResponse reports the live window state for one (identity, action).
type UsageResponse struct {
	Identity string        `json:"identity"`
	Action   models.Action `json:"action"`
	Count    int           `json:"count"`
	Limit    int           `json:"limit"`
}

// HandleUsage implements GET /admin/quota/{action}?identity=...
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	action := models.Action(chi.URLParam(r, "action"))
	if !action.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown action"))
		return
	}
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identity query parameter is required"))
		return
	}

	count, limit, err := h.service.Usage(ctx, identity, action)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read quota usage",
			"error", err,
			"action", action,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &UsageResponse{
		Identity: identity,
		Action:   action,
		Count:    count,
		Limit:    limit,
	})
}

// ResetRequest is the body of POST /admin/quota/reset.
type ResetRequest struct {
	Identity string        `json:"identity" validate:"required,notblank"`
	Action   models.Action `json:"action" validate:"required"`
}

// HandleReset implements POST /admin/quota/reset.
// Clears the identity's window for the action and its violation counter.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !req.Action.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown action"))
		return
	}

	if err := h.service.Reset(ctx, req.Identity, req.Action); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset quota",
			"error", err,
			"action", req.Action,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
