package port

import (
	"context"

	"github.com/fraudscope/fraudscope/pkg/events"
)

// Classifier is a fitted binary probabilistic model. Implementations must be
// safe for concurrent use once fitted.
type Classifier interface {
	// PredictProba returns the probability of the positive (fraud) class.
	PredictProba(features []float64) (float64, error)
}

// RandomSource supplies uniformly distributed integers in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
