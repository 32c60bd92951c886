package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/application/usecase"
	"github.com/fraudscope/fraudscope/internal/domain/event"
	"github.com/fraudscope/fraudscope/internal/domain/model"
	"github.com/fraudscope/fraudscope/internal/domain/service"
	"github.com/fraudscope/fraudscope/internal/domain/valueobject"
	"github.com/fraudscope/fraudscope/pkg/events"
)

// --- Mock implementations ---

type stubClassifier struct {
	p   float64
	err error
}

func (s stubClassifier) PredictProba([]float64) (float64, error) {
	return s.p, s.err
}

// fixedSource always returns v, so jitter is v-10.
type fixedSource struct{ v int }

func (f fixedSource) IntN(int) int { return f.v }

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []events.DomainEvent
	publishErr      error
}

func (m *mockEventPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockRecorder struct {
	scored        []int
	failed        []string
	publishFailed int
}

func (m *mockRecorder) PredictionScored(_ string, score int, _ time.Duration) {
	m.scored = append(m.scored, score)
}

func (m *mockRecorder) PredictionFailed(source, outcome string) {
	m.failed = append(m.failed, source+":"+outcome)
}

func (m *mockRecorder) EventPublishFailed() { m.publishFailed++ }

// --- Helpers ---

var (
	fixedTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	fixedID   = uuid.MustParse("6f1c1c8e-8d1a-4c7e-9d59-0d3b8c1f2a10")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newUseCase(classifier stubClassifier, jitter int, pub *mockEventPublisher, rec *mockRecorder) *usecase.ScoreTransaction {
	scorer := service.NewFraudScorer(classifier, fixedSource{v: jitter})
	return usecase.NewScoreTransaction(
		scorer,
		service.NewRiskLabeler(),
		pub,
		rec,
		testLogger(),
		usecase.WithClock(func() time.Time { return fixedTime }),
		usecase.WithIDGenerator(func() uuid.UUID { return fixedID }),
	)
}

func validRequest() dto.ScoreTransactionRequest {
	return dto.ScoreTransactionRequest{
		Amount:   decimal.NewFromInt(25000),
		Location: "Mumbai",
		Time:     "Night",
		Device:   "Mobile Android",
		Source:   dto.SourceREST,
	}
}

// --- Tests ---

func TestScoreTransaction_Execute(t *testing.T) {
	t.Run("scores labels and publishes", func(t *testing.T) {
		pub := &mockEventPublisher{}
		rec := &mockRecorder{}
		uc := newUseCase(stubClassifier{p: 0.42}, 10, pub, rec)

		resp, err := uc.Execute(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, fixedID, resp.ID)
		assert.Equal(t, 42, resp.FraudScore)
		assert.Equal(t, fixedTime, resp.Timestamp)
		assert.Equal(t, model.RiskFactors{
			Amount:   valueobject.RiskLevelHigh,
			Location: valueobject.RiskLevelMedium,
			Time:     valueobject.RiskLevelHigh,
			Device:   valueobject.RiskLevelMedium,
		}, resp.RiskFactors)
		assert.Equal(t, []int{42}, rec.scored)
		assert.Empty(t, rec.failed)

		require.Len(t, pub.publishedEvents, 1)
		evt, ok := pub.publishedEvents[0].(event.PredictionScored)
		require.True(t, ok, "expected PredictionScored, got %T", pub.publishedEvents[0])
		assert.Equal(t, event.EventTypePredictionScored, evt.EventType())
		assert.Equal(t, fixedID, evt.AggregateID())
		assert.Equal(t, dto.SourceREST, evt.Source)
		assert.Equal(t, "25000", evt.Amount)
		assert.Equal(t, 42, evt.FraudScore)
		assert.Equal(t, "High", evt.RiskFactors["amount"])
		assert.Equal(t, fixedTime, evt.ScoredAt)
	})

	t.Run("applies jitter and clamps", func(t *testing.T) {
		tests := []struct {
			p      float64
			jitter int
			want   int
		}{
			{0.05, 0, 0},
			{0.999, 20, 100},
			{0.5, 0, 40},
			{0.5, 20, 60},
		}
		for _, tt := range tests {
			uc := newUseCase(stubClassifier{p: tt.p}, tt.jitter, &mockEventPublisher{}, &mockRecorder{})
			resp, err := uc.Execute(context.Background(), validRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.FraudScore, "p=%v jitter index=%d", tt.p, tt.jitter)
		}
	})

	t.Run("rejects invalid transaction before scoring", func(t *testing.T) {
		tests := map[string]func(*dto.ScoreTransactionRequest){
			"zero amount":      func(r *dto.ScoreTransactionRequest) { r.Amount = decimal.Zero },
			"unknown location": func(r *dto.ScoreTransactionRequest) { r.Location = "Nowhere" },
			"unknown time":     func(r *dto.ScoreTransactionRequest) { r.Time = "Dusk" },
			"unknown device":   func(r *dto.ScoreTransactionRequest) { r.Device = "Abacus" },
		}
		for name, mutate := range tests {
			t.Run(name, func(t *testing.T) {
				pub := &mockEventPublisher{}
				rec := &mockRecorder{}
				uc := newUseCase(stubClassifier{p: 0.5}, 10, pub, rec)

				req := validRequest()
				mutate(&req)
				_, err := uc.Execute(context.Background(), req)

				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInvalidTransaction)
				assert.Contains(t, err.Error(), "failed to create transaction")
				assert.Equal(t, []string{"rest:invalid"}, rec.failed)
				assert.Empty(t, pub.publishedEvents)
			})
		}
	})

	t.Run("fails when classifier fails", func(t *testing.T) {
		pub := &mockEventPublisher{}
		rec := &mockRecorder{}
		uc := newUseCase(stubClassifier{err: errors.New("model unavailable")}, 10, pub, rec)

		_, err := uc.Execute(context.Background(), validRequest())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to score transaction")
		assert.Contains(t, err.Error(), "model unavailable")
		assert.Equal(t, []string{"rest:error"}, rec.failed)
		assert.Empty(t, rec.scored)
		assert.Empty(t, pub.publishedEvents)
	})

	t.Run("fails on invalid probability", func(t *testing.T) {
		uc := newUseCase(stubClassifier{p: 1.5}, 10, &mockEventPublisher{}, &mockRecorder{})

		_, err := uc.Execute(context.Background(), validRequest())

		assert.ErrorIs(t, err, service.ErrInvalidProbability)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		pub := &mockEventPublisher{publishErr: fmt.Errorf("kafka unavailable")}
		rec := &mockRecorder{}
		uc := newUseCase(stubClassifier{p: 0.3}, 10, pub, rec)

		resp, err := uc.Execute(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, 30, resp.FraudScore)
		assert.Equal(t, 1, rec.publishFailed)
	})

	t.Run("missing source is reported as unknown", func(t *testing.T) {
		rec := &mockRecorder{}
		uc := newUseCase(stubClassifier{p: 0.3}, 10, &mockEventPublisher{}, rec)

		req := validRequest()
		req.Source = ""
		req.Amount = decimal.Zero
		_, err := uc.Execute(context.Background(), req)

		require.Error(t, err)
		assert.Equal(t, []string{"unknown:invalid"}, rec.failed)
	})
}

func TestScoreTransaction_Defaults(t *testing.T) {
	scorer := service.NewFraudScorer(stubClassifier{p: 0.2}, fixedSource{v: 10})
	uc := usecase.NewScoreTransaction(scorer, service.NewRiskLabeler(), &mockEventPublisher{}, nil, testLogger())

	before := time.Now().UTC()
	resp, err := uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, time.UTC, resp.Timestamp.Location())
	assert.False(t, resp.Timestamp.Before(before))
}
