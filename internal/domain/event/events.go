package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/fraudscope/fraudscope/pkg/events"
)

const (
	// EventTypePredictionScored is emitted after every successful prediction.
	EventTypePredictionScored = "fraud.prediction.scored"

	// AggregateTypePrediction names the aggregate that owns scoring events.
	AggregateTypePrediction = "Prediction"
)

// PredictionScored is published when a transaction has been scored. It carries
// the full input and output so downstream consumers need no lookup.
type PredictionScored struct {
	events.BaseEvent
	PredictionID uuid.UUID         `json:"prediction_id"`
	Source       string            `json:"source"`
	Amount       string            `json:"amount"`
	Location     string            `json:"location"`
	Time         string            `json:"time"`
	Device       string            `json:"device"`
	FraudScore   int               `json:"fraud_score"`
	RiskFactors  map[string]string `json:"risk_factors"`
	ScoredAt     time.Time         `json:"scored_at"`
}

// NewPredictionScored builds the event for a completed prediction.
func NewPredictionScored(
	predictionID uuid.UUID,
	source string,
	amount, location, timeOfDay, device string,
	fraudScore int,
	riskFactors map[string]string,
	scoredAt time.Time,
) PredictionScored {
	return PredictionScored{
		BaseEvent:    events.NewBaseEvent(EventTypePredictionScored, predictionID, AggregateTypePrediction),
		PredictionID: predictionID,
		Source:       source,
		Amount:       amount,
		Location:     location,
		Time:         timeOfDay,
		Device:       device,
		FraudScore:   fraudScore,
		RiskFactors:  riskFactors,
		ScoredAt:     scoredAt,
	}
}
