package stochastic

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// GeneratePriceSeries returns a geometric price path of length days. Each
// step multiplies the running price by 1 + N(drift, volatility). Prices are
// not floored: an adverse draw can drive the path non-positive, which callers
// detect with FirstNonPositive.
func GeneratePriceSeries(initialPrice float64, days int, volatility, drift float64, seed int64) ([]float64, error) {
	switch {
	case days < 1:
		return nil, fmt.Errorf("stochastic: price series days %d: %w", days, domain.ErrInvalidConfiguration)
	case initialPrice <= 0:
		return nil, fmt.Errorf("stochastic: initial price %g: %w", initialPrice, domain.ErrInvalidConfiguration)
	case volatility < 0:
		return nil, fmt.Errorf("stochastic: negative volatility %g: %w", volatility, domain.ErrInvalidConfiguration)
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, days)
	cum := 1.0
	for i := range out {
		cum *= 1 + drift + volatility*rng.NormFloat64()
		out[i] = initialPrice * cum
	}
	return out, nil
}

// FirstNonPositive returns the index of the first price <= 0, or -1.
func FirstNonPositive(prices []float64) int {
	for i, p := range prices {
		if p <= 0 {
			return i
		}
	}
	return -1
}

// SeriesSpec describes one price path for GeneratePriceSeriesSet.
type SeriesSpec struct {
	Name         string
	InitialPrice float64
	Days         int
	Volatility   float64
	Drift        float64
	Seed         int64
}

// GeneratePriceSeriesSet generates every series concurrently. Each goroutine
// owns its output slot and its own seeded source, so the result does not
// depend on scheduling.
func GeneratePriceSeriesSet(ctx context.Context, specs []SeriesSpec) (map[string][]float64, error) {
	out := make([][]float64, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			series, err := GeneratePriceSeries(spec.InitialPrice, spec.Days, spec.Volatility, spec.Drift, spec.Seed)
			if err != nil {
				return fmt.Errorf("%s: %w", spec.Name, err)
			}
			out[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string][]float64, len(specs))
	for i, spec := range specs {
		result[spec.Name] = out[i]
	}
	return result, nil
}
