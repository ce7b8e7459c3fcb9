package stats

import (
	"fmt"
	"time"

	"github.com/roach88/ldgraph/internal/ld"
)

// Report renders per-property statistics as plain data for JSON output.
func Report(byProp map[string]PropertyStats) (map[string]any, error) {
	out := make(map[string]any, len(byProp))
	for prop, ps := range byProp {
		vals := make([]any, 0, len(ps.Values))
		for _, vs := range ps.Values {
			value, err := ld.ToAny(vs.Value)
			if err != nil {
				return nil, fmt.Errorf("report %s: %w", prop, err)
			}
			vals = append(vals, map[string]any{
				"value":            value,
				"confidence_level": vs.ConfidenceLevel,
				"nb_sources":       vs.NbSources,
				"count":            vs.Count,
				"min_credibility":  vs.MinCredibility,
				"max_credibility":  vs.MaxCredibility,
				"min_timestamp":    vs.MinTimestamp.UTC().Format(time.RFC3339Nano),
				"max_timestamp":    vs.MaxTimestamp.UTC().Format(time.RFC3339Nano),
			})
		}
		out[prop] = vals
	}
	return out, nil
}
