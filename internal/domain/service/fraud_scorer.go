package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/fraudscope/fraudscope/internal/domain/model"
	"github.com/fraudscope/fraudscope/internal/domain/port"
)

const (
	// MinScore and MaxScore bound every fraud score.
	MinScore = 0
	MaxScore = 100

	// MaxJitter is the largest absolute perturbation added to a score.
	MaxJitter = 10

	// FeatureCount is the width of the vector fed to the classifier.
	FeatureCount = 4
)

var amountScale = decimal.NewFromInt(10000)

// ErrInvalidProbability is returned when the classifier yields NaN or a value
// outside [0, 1].
var ErrInvalidProbability = errors.New("classifier returned an invalid probability")

// FeatureVector is the classifier input in fixed order:
// normalised amount, location risk, time risk, device risk.
type FeatureVector [FeatureCount]float64

// BuildFeatures encodes a transaction for the classifier. The amount is scaled
// by 1/10000 with no upper clamp.
func BuildFeatures(tx model.Transaction) FeatureVector {
	return FeatureVector{
		tx.Amount().Div(amountScale).InexactFloat64(),
		LocationRisk(tx.Location()),
		TimeRisk(tx.Time()),
		DeviceRisk(tx.Device()),
	}
}

// FraudScorer converts a classifier probability into a jittered integer score.
type FraudScorer struct {
	classifier port.Classifier
	rng        port.RandomSource
}

// NewFraudScorer creates a FraudScorer backed by a fitted classifier and a
// jitter source.
func NewFraudScorer(classifier port.Classifier, rng port.RandomSource) *FraudScorer {
	return &FraudScorer{
		classifier: classifier,
		rng:        rng,
	}
}

// Score returns a fraud score in [MinScore, MaxScore]. The probability is
// floored to a percentage, jittered by up to ±MaxJitter, then clamped.
func (s *FraudScorer) Score(tx model.Transaction) (int, error) {
	features := BuildFeatures(tx)

	p, err := s.classifier.PredictProba(features[:])
	if err != nil {
		return 0, fmt.Errorf("classifier prediction: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}

	score := int(math.Floor(p * 100))
	score += s.rng.IntN(2*MaxJitter+1) - MaxJitter

	return min(MaxScore, max(MinScore, score)), nil
}
