package stats

import (
	"time"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
)

// ValueStats summarizes the observations supporting one distinct value.
type ValueStats struct {
	Value           ld.Value
	ConfidenceLevel float64
	NbSources       int
	Count           int
	MinCredibility  float64
	MaxCredibility  float64
	MinTimestamp    time.Time
	MaxTimestamp    time.Time
}

// PropertyStats summarizes one property. Values are in priority order of
// their best supporting observation; Best is the first of them.
type PropertyStats struct {
	PropertyID string
	Best       ld.Value
	Values     []ValueStats
}

// Find returns the stats for v, if v is one of the property's values.
func (p PropertyStats) Find(v ld.Value) (ValueStats, bool) {
	for _, vs := range p.Values {
		if ld.IsSame(vs.Value, v) {
			return vs, true
		}
	}
	return ValueStats{}, false
}

// Compute groups the surviving observations of each property by distinct
// value and summarizes them. A nil combiner means Independent.
func Compute(obs []observe.Observation, combiner Combiner) map[string]PropertyStats {
	if combiner == nil {
		combiner = Independent{}
	}

	out := make(map[string]PropertyStats)
	for prop, group := range observe.Partition(obs) {
		survivors := observe.Survivors(group)
		if len(survivors) == 0 {
			continue
		}

		// survivors are in priority order, so buckets are too
		var buckets [][]observe.Observation
	next:
		for _, o := range survivors {
			for i, b := range buckets {
				if ld.IsSame(b[0].Value, o.Value) {
					buckets[i] = append(b, o)
					continue next
				}
			}
			buckets = append(buckets, []observe.Observation{o})
		}

		ps := PropertyStats{PropertyID: prop, Best: survivors[0].Value}
		for _, b := range buckets {
			ps.Values = append(ps.Values, summarize(b, combiner))
		}
		out[prop] = ps
	}
	return out
}

func summarize(obs []observe.Observation, combiner Combiner) ValueStats {
	vs := ValueStats{
		Value:           obs[0].Value,
		ConfidenceLevel: Round3(combiner.Combine(obs)),
		Count:           len(obs),
		MinCredibility:  obs[0].Credibility,
		MaxCredibility:  obs[0].Credibility,
		MinTimestamp:    obs[0].Timestamp,
		MaxTimestamp:    obs[0].Timestamp,
	}
	sources := make(map[string]struct{})
	for _, o := range obs {
		sources[o.Source] = struct{}{}
		vs.MinCredibility = min(vs.MinCredibility, o.Credibility)
		vs.MaxCredibility = max(vs.MaxCredibility, o.Credibility)
		if o.Timestamp.Before(vs.MinTimestamp) {
			vs.MinTimestamp = o.Timestamp
		}
		if o.Timestamp.After(vs.MaxTimestamp) {
			vs.MaxTimestamp = o.Timestamp
		}
	}
	vs.NbSources = len(sources)
	return vs
}
