package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fraudscope/fraudscope/internal/application/dto"
	"github.com/fraudscope/fraudscope/internal/application/usecase"
	"github.com/fraudscope/fraudscope/internal/application/validation"
	"github.com/fraudscope/fraudscope/internal/domain/model"
)

// Scorer is the use case the handler drives.
type Scorer interface {
	Execute(ctx context.Context, req dto.ScoreTransactionRequest) (dto.PredictionResponse, error)
}

// Compile-time assertion that ScoringServiceHandler implements ScoringServiceServer.
var _ ScoringServiceServer = (*ScoringServiceHandler)(nil)

// ScoringServiceHandler implements the gRPC ScoringServiceServer interface.
type ScoringServiceHandler struct {
	UnimplementedScoringServiceServer
	scorer    Scorer
	validator *validation.Validator
	recorder  usecase.Recorder
	logger    *slog.Logger
}

// NewScoringServiceHandler creates a new gRPC handler.
func NewScoringServiceHandler(scorer Scorer, validator *validation.Validator, recorder usecase.Recorder, logger *slog.Logger) *ScoringServiceHandler {
	if recorder == nil {
		recorder = usecase.NopRecorder{}
	}
	return &ScoringServiceHandler{
		scorer:    scorer,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// Proto-aligned request/response message types.

// ScoreTransactionRequest represents the proto ScoreTransactionRequest message.
// Amount is a decimal string.
type ScoreTransactionRequest struct {
	Amount   string `json:"amount"`
	Location string `json:"location"`
	Time     string `json:"time"`
	Device   string `json:"device"`
}

// RiskFactorsMsg represents the proto RiskFactors message.
type RiskFactorsMsg struct {
	Amount   string `json:"amount"`
	Location string `json:"location"`
	Time     string `json:"time"`
	Device   string `json:"device"`
}

// ScoreTransactionResponse represents the proto ScoreTransactionResponse message.
type ScoreTransactionResponse struct {
	PredictionID string          `json:"prediction_id"`
	FraudScore   int32           `json:"fraud_score"`
	RiskFactors  *RiskFactorsMsg `json:"risk_factors"`
	Timestamp    string          `json:"timestamp"`
}

// ScoreTransaction scores one transaction.
func (h *ScoringServiceHandler) ScoreTransaction(ctx context.Context, req *ScoreTransactionRequest) (*ScoreTransactionResponse, error) {
	if req == nil {
		h.recorder.PredictionFailed(dto.SourceGRPC, usecase.OutcomeInvalid)
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := validation.TransactionInput{
		Location: req.Location,
		Time:     req.Time,
		Device:   req.Device,
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			h.recorder.PredictionFailed(dto.SourceGRPC, usecase.OutcomeInvalid)
			return nil, status.Errorf(codes.InvalidArgument, "invalid amount: %v", err)
		}
		in.Amount = &amount
	}

	if err := h.validator.Validate(in); err != nil {
		h.recorder.PredictionFailed(dto.SourceGRPC, usecase.OutcomeInvalid)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.scorer.Execute(ctx, in.Request(dto.SourceGRPC))
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransaction) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		h.logger.Error("failed to score transaction", slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &ScoreTransactionResponse{
		PredictionID: result.ID.String(),
		FraudScore:   int32(result.FraudScore),
		RiskFactors: &RiskFactorsMsg{
			Amount:   result.RiskFactors.Amount.String(),
			Location: result.RiskFactors.Location.String(),
			Time:     result.RiskFactors.Time.String(),
			Device:   result.RiskFactors.Device.String(),
		},
		Timestamp: result.Timestamp.UTC().Format(time.RFC3339Nano),
	}, nil
}
