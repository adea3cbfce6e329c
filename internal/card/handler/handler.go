package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	binmodels "cardforge/internal/bin/models"
	"cardforge/internal/card/models"
	"cardforge/internal/platform/middleware"
	rlmodels "cardforge/internal/ratelimit/models"
	"cardforge/internal/risk"
	dErrors "cardforge/pkg/domain-errors"
	"cardforge/pkg/platform/httputil"
	"cardforge/pkg/validation"
)

// bulkConcurrency bounds parallel generation within one bulk request.
const bulkConcurrency = 8

// CardService generates synthetic cards.
type CardService interface {
	Generate(ctx context.Context, prefix string, opts models.GenerateOptions) (*models.GeneratedCard, error)
}

// Classifier resolves BIN prefixes to metadata.
type Classifier interface {
	Classify(ctx context.Context, prefixInput string) (*binmodels.BinRecord, error)
}

// Admission gates requests per identity and action.
type Admission interface {
	CheckAndRecord(ctx context.Context, identity string, action rlmodels.Action) (*rlmodels.AdmissionResult, error)
}

type Handler struct {
	cards     CardService
	bins      Classifier
	admission Admission
	risk      risk.Provider
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRiskProvider sets the risk verdict source consulted before admission.
func WithRiskProvider(provider risk.Provider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.risk = provider
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func New(cards CardService, bins Classifier, admission Admission, opts ...Option) *Handler {
	h := &Handler{
		cards:     cards,
		bins:      bins,
		admission: admission,
		risk:      risk.NewAllowAll(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the generation and lookup routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cards/generate", h.HandleGenerate)
	r.Post("/cards/generate/bulk", h.HandleBulkGenerate)
	r.Get("/bins/{prefix}", h.HandleBinLookup)
}

// HandleGenerate implements POST /cards/generate.
//
// Input: { "bin": "424242", "include_avs": false, "avs_country": "" }
// Output: one CardResponse.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !h.admit(ctx, w, rlmodels.ActionCardGeneration) {
		return
	}

	card, err := h.cards.Generate(ctx, req.BIN, models.GenerateOptions{
		IncludeAVS: req.IncludeAVS,
		AVSCountry: req.AVSCountry,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "card generation rejected",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newCardResponse(card))
}

// HandleBulkGenerate implements POST /cards/generate/bulk.
//
// One admission charge covers the whole batch; the count cap bounds the
// work a single charge can buy. Cards are generated in parallel with
// bounded concurrency, and per-card internal failures are counted rather
// than failing the batch.
func (h *Handler) HandleBulkGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !h.admit(ctx, w, rlmodels.ActionBulkGeneration) {
		return
	}

	// Classify once up front so an invalid or blocked BIN fails the batch
	// with the proper error instead of N identical per-card failures.
	if _, err := h.bins.Classify(ctx, req.BIN); err != nil {
		httputil.WriteError(w, err)
		return
	}

	opts := models.GenerateOptions{
		IncludeAVS: req.IncludeAVS,
		AVSCountry: req.AVSCountry,
	}

	cards := make([]*models.GeneratedCard, req.Count)
	var failed int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i := 0; i < req.Count; i++ {
		i := i
		g.Go(func() error {
			card, err := h.cards.Generate(gctx, req.BIN, opts)
			if err != nil {
				h.logger.WarnContext(gctx, "bulk card generation failed",
					"error", err,
					"request_id", middleware.GetRequestID(gctx),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			cards[i] = card
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	response := &BulkGenerateResponse{
		Requested: req.Count,
		Failed:    failed,
		Cards:     make([]*CardResponse, 0, req.Count),
	}
	for _, card := range cards {
		if card != nil {
			response.Cards = append(response.Cards, newCardResponse(card))
		}
	}
	response.Generated = len(response.Cards)

	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleBinLookup implements GET /bins/{prefix}.
func (h *Handler) HandleBinLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.admit(ctx, w, rlmodels.ActionBinLookup) {
		return
	}

	record, err := h.bins.Classify(ctx, chi.URLParam(r, "prefix"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, newBinResponse(record))
}

// admit runs the risk verdict and admission checks, writing the denial
// response itself. Returns true when the request may proceed.
func (h *Handler) admit(ctx context.Context, w http.ResponseWriter, action rlmodels.Action) bool {
	identity := middleware.GetIdentity(ctx)
	if identity.Key == "" {
		// Identity middleware did not run; attribute to a shared bucket
		// rather than skipping admission entirely.
		identity.Key = "ip:unknown:ua:0"
	}

	verdict, err := h.risk.Verdict(ctx, identity.Key)
	if err != nil {
		// A broken risk feed must not take down generation.
		h.logger.WarnContext(ctx, "risk provider unavailable",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		verdict = risk.VerdictAllow
	}
	if verdict == risk.VerdictDeny {
		h.logger.WarnContext(ctx, "risk policy denied request",
			"identity", identity.Key,
			"ip", identity.IP,
			"user_agent", identity.UserAgent,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeRiskDenied, "request denied by risk policy"))
		return false
	}

	result, err := h.admission.CheckAndRecord(ctx, identity.Key, action)
	if err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if !result.Allowed {
		httputil.WriteQuotaExceeded(w, result.RetryAfter, result.Limit, result.Remaining, "quota exceeded: "+result.Reason)
		return false
	}
	return true
}
