package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/domain/event"
	"github.com/fraudscope/fraudscope/internal/domain/model"
	"github.com/fraudscope/fraudscope/internal/domain/port"
	"github.com/fraudscope/fraudscope/internal/domain/service"
)

// Outcomes reported to a Recorder for requests that did not produce a score.
const (
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var tracer = otel.Tracer("github.com/fraudscope/fraudscope/internal/application/usecase")

// Recorder receives prediction metrics.
type Recorder interface {
	PredictionScored(source string, score int, elapsed time.Duration)
	PredictionFailed(source, outcome string)
	EventPublishFailed()
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) PredictionScored(string, int, time.Duration) {}
func (NopRecorder) PredictionFailed(string, string)             {}
func (NopRecorder) EventPublishFailed()                         {}

// ScoreTransaction is the use case for scoring a single transaction.
type ScoreTransaction struct {
	scorer    *service.FraudScorer
	labeler   *service.RiskLabeler
	publisher port.EventPublisher
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// Option customises a ScoreTransaction.
type Option func(*ScoreTransaction)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(uc *ScoreTransaction) { uc.now = now }
}

// WithIDGenerator overrides prediction ID generation.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(uc *ScoreTransaction) { uc.newID = newID }
}

// NewScoreTransaction creates a new ScoreTransaction use case.
func NewScoreTransaction(
	scorer *service.FraudScorer,
	labeler *service.RiskLabeler,
	publisher port.EventPublisher,
	recorder Recorder,
	logger *slog.Logger,
	opts ...Option,
) *ScoreTransaction {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	uc := &ScoreTransaction{
		scorer:    scorer,
		labeler:   labeler,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute scores and labels the transaction, then publishes a
// PredictionScored event. Scoring errors fail the request; publishing errors
// are logged and counted only.
func (uc *ScoreTransaction) Execute(ctx context.Context, req dto.ScoreTransactionRequest) (dto.PredictionResponse, error) {
	start := time.Now()
	source := req.Source
	if source == "" {
		source = "unknown"
	}

	ctx, span := tracer.Start(ctx, "ScoreTransaction",
		trace.WithAttributes(attribute.String("fraud.source", source)),
	)
	defer span.End()

	tx, err := model.NewTransaction(req.Amount, req.Location, req.Time, req.Device)
	if err != nil {
		uc.recorder.PredictionFailed(source, OutcomeInvalid)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid transaction")
		return dto.PredictionResponse{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	score, err := uc.score(ctx, tx)
	if err != nil {
		uc.recorder.PredictionFailed(source, OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.PredictionResponse{}, fmt.Errorf("failed to score transaction: %w", err)
	}

	factors := uc.labeler.Label(tx)
	resp := dto.PredictionResponse{
		ID:          uc.newID(),
		FraudScore:  score,
		RiskFactors: factors,
		Timestamp:   uc.now(),
	}

	uc.recorder.PredictionScored(source, score, time.Since(start))
	span.SetAttributes(
		attribute.String("prediction.id", resp.ID.String()),
		attribute.Int("fraud.score", score),
	)

	evt := event.NewPredictionScored(
		resp.ID,
		source,
		tx.Amount().String(),
		tx.Location(),
		tx.Time(),
		tx.Device(),
		score,
		factors.Map(),
		resp.Timestamp,
	)
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.recorder.EventPublishFailed()
		uc.logger.Warn("failed to publish prediction event",
			slog.String("prediction_id", resp.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return resp, nil
}

func (uc *ScoreTransaction) score(ctx context.Context, tx model.Transaction) (int, error) {
	features := service.BuildFeatures(tx)
	_, span := tracer.Start(ctx, "fraudscorer.Score",
		trace.WithAttributes(attribute.Float64Slice("fraud.features", features[:])),
	)
	defer span.End()

	score, err := uc.scorer.Score(tx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return score, nil
}
