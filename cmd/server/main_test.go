package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardforge/internal/platform/health"
)

// A quota-store outage must not flip readiness: admission degrades to its
// in-process fallback, so Redis is never wired as a readiness dependency.
func TestReadinessChecksExcludeQuotaStore(t *testing.T) {
	h := health.New("test")
	registerReadinessChecks(h, nil)

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}
