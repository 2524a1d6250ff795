package stats

import (
	"math"
	"math/rand/v2"

	mstats "github.com/montanaflynn/stats"
)

// Baseline is the distribution of mean scores a uniformly random guesser
// would obtain over the same number of items.
type Baseline struct {
	Interval
	// Center is the expected score of a single random guess.
	Center float64   `json:"center"`
	Means  []float64 `json:"-"`
}

// SimulateBaseline runs trials independent random-guessing experiments, each
// drawing samples scores uniformly from pool.
func SimulateBaseline(rng *rand.Rand, pool []float64, samples, trials int) (Baseline, error) {
	if len(pool) == 0 || samples < 1 {
		return Baseline{}, ErrNoScores
	}
	if trials < 1 {
		return Baseline{}, ErrInvalidCount
	}

	center, err := mstats.Mean(pool)
	if err != nil {
		return Baseline{}, ErrNoScores
	}

	means := make([]float64, trials)
	for i := range means {
		var sum float64
		for j := 0; j < samples; j++ {
			sum += pool[rng.IntN(len(pool))]
		}
		means[i] = sum / float64(samples)
	}

	interval, err := summarise(means)
	if err != nil {
		return Baseline{}, err
	}

	return Baseline{Interval: interval, Center: center, Means: means}, nil
}

// PValue is the two-sided empirical p-value of observed: the share of trial
// means deviating from the center by at least as much as observed does.
func (b Baseline) PValue(observed float64) float64 {
	if len(b.Means) == 0 {
		return math.NaN()
	}
	threshold := math.Abs(observed - b.Center)
	extreme := 0
	for _, mean := range b.Means {
		if math.Abs(mean-b.Center) >= threshold {
			extreme++
		}
	}
	return float64(extreme) / float64(len(b.Means))
}
