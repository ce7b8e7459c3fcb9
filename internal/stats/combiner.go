package stats

import (
	"math"

	"github.com/roach88/ldgraph/internal/observe"
)

// Combiner folds the credibilities of observations supporting one value
// into a confidence level in [0,1].
type Combiner interface {
	Combine(obs []observe.Observation) float64
}

// Independent treats every observation as independent evidence:
// 1 - Π(1 - c_i).
type Independent struct{}

// Combine implements Combiner.
func (Independent) Combine(obs []observe.Observation) float64 {
	creds := make([]float64, len(obs))
	for i, o := range obs {
		creds[i] = o.Credibility
	}
	return noisyOr(creds)
}

// PerSource keeps only the most credible observation from each source,
// then combines sources as independent evidence. Repeated assertions by
// one source do not compound.
type PerSource struct{}

// Combine implements Combiner.
func (PerSource) Combine(obs []observe.Observation) float64 {
	best := make(map[string]float64)
	var order []string
	for _, o := range obs {
		c, seen := best[o.Source]
		if !seen {
			order = append(order, o.Source)
		}
		if !seen || o.Credibility > c {
			best[o.Source] = o.Credibility
		}
	}
	creds := make([]float64, len(order))
	for i, src := range order {
		creds[i] = best[src]
	}
	return noisyOr(creds)
}

func noisyOr(creds []float64) float64 {
	miss := 1.0
	for _, c := range creds {
		miss *= 1 - c
	}
	return 1 - miss
}

// Round3 rounds to 3 decimals.
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
