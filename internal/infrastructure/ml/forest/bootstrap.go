package forest

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// BootstrapConfig describes the synthetic training run performed at startup.
type BootstrapConfig struct {
	Estimators int
	Seed       uint64
	Samples    int
	Features   int
}

// DefaultBootstrapConfig returns the production bootstrap parameters.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Estimators: 10,
		Seed:       42,
		Samples:    1000,
		Features:   4,
	}
}

// SyntheticDataset draws features uniformly from [0, 1) and labels uniformly
// from {0, 1}. Features and labels are independent, so the fitted model has
// no real signal.
func SyntheticDataset(samples, features int, seed uint64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, 0))

	x := make([][]float64, samples)
	for i := range x {
		row := make([]float64, features)
		for j := range row {
			row[j] = rng.Float64()
		}
		x[i] = row
	}

	y := make([]int, samples)
	for i := range y {
		y[i] = rng.IntN(2)
	}

	return x, y
}

// Bootstrap fits a forest on the synthetic dataset. The same config always
// yields the same forest.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) (*Forest, error) {
	if cfg.Samples <= 0 || cfg.Features <= 0 {
		return nil, fmt.Errorf("%w: samples and features must be positive", ErrInvalidTrainingData)
	}

	x, y := SyntheticDataset(cfg.Samples, cfg.Features, cfg.Seed)

	f := New(Config{
		Estimators: cfg.Estimators,
		Seed:       cfg.Seed,
	})
	if err := f.Fit(ctx, x, y); err != nil {
		return nil, err
	}
	return f, nil
}
