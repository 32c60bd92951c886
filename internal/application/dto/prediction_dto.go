package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fraudscope/fraudscope/internal/domain/model"
)

// Sources identify the transport a prediction request arrived on.
const (
	SourceREST  = "rest"
	SourceGRPC  = "grpc"
	SourceKafka = "kafka"
)

// ScoreTransactionRequest is the input DTO for the ScoreTransaction use case.
type ScoreTransactionRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Location string          `json:"location"`
	Time     string          `json:"time"`
	Device   string          `json:"device"`
	Source   string          `json:"-"`
}

// PredictionResponse is the output DTO of a prediction. ID is carried out of
// band so the body keeps its fixed three-field shape.
type PredictionResponse struct {
	FraudScore  int               `json:"fraudScore"`
	RiskFactors model.RiskFactors `json:"riskFactors"`
	Timestamp   time.Time         `json:"timestamp"`
	ID          uuid.UUID         `json:"-"`
}
