// Package httptransport wires the HTTP surface. Handlers stay thin and
// delegate to domain services; everything cross-cutting lives in middleware.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cardhandler "cardforge/internal/card/handler"
	"cardforge/internal/platform/health"
	"cardforge/internal/platform/middleware"
	rlhandler "cardforge/internal/ratelimit/handler"
)

// Deps carries the wired handlers and transport settings.
type Deps struct {
	Cards  *cardhandler.Handler
	Quota  *rlhandler.Handler
	Health *health.Handler
	Logger *slog.Logger

	// JWTSigningKey enables bearer-token identities when non-empty.
	JWTSigningKey string
	// RequestTimeout bounds each request end to end.
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with the middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.ClientIdentity(deps.JWTSigningKey))

	deps.Cards.Register(r)
	deps.Quota.RegisterAdmin(r)
	deps.Health.Register(r)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
