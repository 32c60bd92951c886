// Package stream scores transactions consumed from Kafka.
package stream

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/application/usecase"
	"github.com/fraudscope/fraudscope/internal/application/validation"
	"github.com/fraudscope/fraudscope/internal/domain/model"
	"github.com/fraudscope/fraudscope/pkg/kafka"
)

// Scorer is the use case the handler drives.
type Scorer interface {
	Execute(ctx context.Context, req dto.ScoreTransactionRequest) (dto.PredictionResponse, error)
}

// TransactionHandler turns each Kafka message into one scoring request.
// Results leave through the use case's event publisher.
type TransactionHandler struct {
	scorer    Scorer
	validator *validation.Validator
	recorder  usecase.Recorder
	logger    *slog.Logger
}

// NewTransactionHandler creates a new stream handler.
func NewTransactionHandler(scorer Scorer, validator *validation.Validator, recorder usecase.Recorder, logger *slog.Logger) *TransactionHandler {
	if recorder == nil {
		recorder = usecase.NopRecorder{}
	}
	return &TransactionHandler{
		scorer:    scorer,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Handle is a kafka.Handler. Messages that can never be scored return nil so
// the consumer commits past them; scoring failures are returned and the
// offset stays uncommitted.
func (h *TransactionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if len(msg.Value) > validation.MaxBodyBytes {
		h.skip(msg, "message too large")
		return nil
	}

	in, err := h.validator.DecodeAndValidate(bytes.NewReader(msg.Value))
	if err != nil {
		h.skip(msg, err.Error())
		return nil
	}

	resp, err := h.scorer.Execute(ctx, in.Request(dto.SourceKafka))
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransaction) {
			h.logger.Warn("skipping invalid transaction",
				slog.String("key", string(msg.Key)),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return err
	}

	h.logger.Debug("transaction scored",
		slog.String("key", string(msg.Key)),
		slog.String("prediction_id", resp.ID.String()),
		slog.Int("fraud_score", resp.FraudScore),
	)
	return nil
}

func (h *TransactionHandler) skip(msg kafka.Message, reason string) {
	h.recorder.PredictionFailed(dto.SourceKafka, usecase.OutcomeInvalid)
	h.logger.Warn("skipping invalid transaction",
		slog.String("key", string(msg.Key)),
		slog.String("error", reason),
	)
}
