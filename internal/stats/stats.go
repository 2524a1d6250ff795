// Package stats implements the resampling statistics used to compare
// prompting strategies against chance.
package stats

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

const (
	DefaultResamples = 100000
	DefaultTrials    = 10000

	lowerPercentile = 2.5
	upperPercentile = 97.5
)

var (
	// ErrNoScores indicates there are no scorable items to summarise.
	ErrNoScores = errors.New("no scorable items")
	// ErrInvalidCount indicates a non-positive resample or trial count.
	ErrInvalidCount = errors.New("count must be at least 1")
)

// Interval is a point estimate with a 95% percentile interval.
type Interval struct {
	Mean  float64 `json:"mean"`
	Lower float64 `json:"ci_lower"`
	Upper float64 `json:"ci_upper"`
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Bootstrap resamples scores with replacement and reports the mean of the
// resample means together with their 2.5th and 97.5th percentiles.
func Bootstrap(rng *rand.Rand, scores []float64, resamples int) (Interval, error) {
	if len(scores) == 0 {
		return Interval{}, ErrNoScores
	}
	if resamples < 1 {
		return Interval{}, ErrInvalidCount
	}

	n := len(scores)
	means := make([]float64, resamples)
	for i := range means {
		var sum float64
		for j := 0; j < n; j++ {
			sum += scores[rng.IntN(n)]
		}
		means[i] = sum / float64(n)
	}

	return summarise(means)
}

func summarise(means []float64) (Interval, error) {
	mean, err := mstats.Mean(means)
	if err != nil {
		return Interval{}, ErrNoScores
	}

	sorted := append([]float64(nil), means...)
	sort.Float64s(sorted)

	return Interval{
		Mean:  mean,
		Lower: percentile(sorted, lowerPercentile),
		Upper: percentile(sorted, upperPercentile),
	}, nil
}

// percentile interpolates linearly between the closest ranks of an ascending
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
