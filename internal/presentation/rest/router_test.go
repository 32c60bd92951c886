package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudscope/fraudscope/internal/application/validation"
)

func newTestRouter(rateLimit int) http.Handler {
	return NewRouter(RouterConfig{
		Predictions: NewPredictionHandler(realScorer(0.5), validation.New(), nil, testLogger()),
		Health:      NewHealthHandler(testLogger(), nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fraudscope_predictions_total 1\n"))
		}),
		Logger:         testLogger(),
		RateLimit:      rateLimit,
		AllowedOrigins: []string{"*"},
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(100)

	tests := []struct {
		method   string
		path     string
		body     string
		wantCode int
	}{
		{http.MethodPost, "/predict", `{"amount": 100, "location": "Pune", "time": "Morning", "device": "Mobile iOS"}`, http.StatusOK},
		{http.MethodGet, "/predict", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_AppliesRateLimit(t *testing.T) {
	router := newTestRouter(1)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, map[string]any{"error": "rate limit exceeded"}, decodeBody(t, second))
}
