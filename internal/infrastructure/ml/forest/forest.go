// Package forest implements a seeded random forest classifier for binary
// labels. A Forest is fitted once and is read-only afterwards, so a fitted
// Forest may be shared by any number of goroutines.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFitted           = errors.New("forest: model is not fitted")
	ErrAlreadyFitted       = errors.New("forest: model is already fitted")
	ErrFeatureMismatch     = errors.New("forest: feature count mismatch")
	ErrInvalidTrainingData = errors.New("forest: invalid training data")
)

// Config controls forest construction.
type Config struct {
	Estimators      int
	Seed            uint64
	MaxFeatures     int // features considered per split; 0 means floor(sqrt(d))
	MinSamplesSplit int // 0 means 2
}

// Forest is an ensemble of CART trees grown on bootstrap samples.
type Forest struct {
	cfg      Config
	trees    []tree
	features int
}

// New returns an unfitted forest.
func New(cfg Config) *Forest {
	return &Forest{cfg: cfg}
}

// Fit grows every tree concurrently. Each tree draws from its own generator
// derived from the seed, so the result does not depend on scheduling.
func (f *Forest) Fit(ctx context.Context, x [][]float64, y []int) error {
	if f.trees != nil {
		return ErrAlreadyFitted
	}
	if f.cfg.Estimators <= 0 {
		return fmt.Errorf("%w: estimators must be positive, got %d", ErrInvalidTrainingData, f.cfg.Estimators)
	}
	width, err := validateTrainingData(x, y)
	if err != nil {
		return err
	}

	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > width {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	minSplit := f.cfg.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}

	n := len(x)
	trees := make([]tree, f.cfg.Estimators)
	g, gctx := errgroup.WithContext(ctx)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(f.cfg.Seed, uint64(i)+1))

			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.IntN(n)
			}

			b := &treeBuilder{
				x:               x,
				y:               y,
				maxFeatures:     maxFeatures,
				minSamplesSplit: minSplit,
				rng:             rng,
			}
			trees[i] = b.build(sample)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("forest: fit: %w", err)
	}

	f.trees = trees
	f.features = width
	return nil
}

// PredictProba returns the mean positive-class probability across trees.
func (f *Forest) PredictProba(features []float64) (float64, error) {
	if f.trees == nil {
		return 0, ErrNotFitted
	}
	if len(features) != f.features {
		return 0, fmt.Errorf("%w: want %d, got %d", ErrFeatureMismatch, f.features, len(features))
	}

	var sum float64
	for i := range f.trees {
		sum += f.trees[i].predict(features)
	}
	return sum / float64(len(f.trees)), nil
}

// Fitted reports whether Fit has completed successfully.
func (f *Forest) Fitted() bool {
	return f.trees != nil
}

// Estimators returns the number of trees in a fitted forest.
func (f *Forest) Estimators() int {
	return len(f.trees)
}

func validateTrainingData(x [][]float64, y []int) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrInvalidTrainingData)
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d samples but %d labels", ErrInvalidTrainingData, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: samples have no features", ErrInvalidTrainingData)
	}
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("%w: sample %d has %d features, want %d", ErrInvalidTrainingData, i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return 0, fmt.Errorf("%w: label %d is %d, want 0 or 1", ErrInvalidTrainingData, i, label)
		}
	}
	return width, nil
}
