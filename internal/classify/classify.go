package classify

import (
	"math"
	"sort"

	"github.com/combatlab/playstyle/internal/feature"
)

// Score is one label's result. Raw is the clamped table score in [0,1];
// Confidence is Raw normalized across all labels so the confidences sum to 1
// (or all stay 0 when nothing fired).
type Score struct {
	Label      string  `json:"label"`
	Raw        float64 `json:"raw"`
	Confidence float64 `json:"confidence"`
}

// Result is a full classification, scores sorted by confidence descending
// with ties broken by the schema's label order.
type Result struct {
	Schema string  `json:"schema"`
	Scores []Score `json:"scores"`
}

// Primary returns the winning label's score.
func (r Result) Primary() Score { return r.Scores[0] }

// Secondary returns the runner-up, if the schema has more than one label.
func (r Result) Secondary() (Score, bool) {
	if len(r.Scores) < 2 {
		return Score{}, false
	}
	return r.Scores[1], true
}

// Evaluate scores the vector against every label in the schema. The schema
// must have passed Validate; Evaluate itself never fails and never produces
// NaN for a finite vector.
func (s *Schema) Evaluate(v *feature.Vector) Result {
	scores := make([]Score, len(s.Labels))
	total := 0.0
	for i, l := range s.Labels {
		raw := 0.0
		for _, row := range l.Rows {
			val, ok := v.Value(row.Feature)
			if !ok {
				continue
			}
			raw += row.weightFor(val)
		}
		if w, ok := l.RangeWeights[v.EngagementRange]; ok {
			raw += w
		}
		raw = math.Min(1, math.Max(0, raw))
		scores[i] = Score{Label: l.Name, Raw: raw}
		total += raw
	}

	// All-zero stays all-zero: an uninformative session has no confident label.
	if total > 0 {
		for i := range scores {
			scores[i].Confidence = scores[i].Raw / total
		}
	}

	// Stable sort preserves schema label order among equal scores, which is
	// the documented precedence for ties.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Confidence > scores[j].Confidence
	})
	return Result{Schema: s.Name, Scores: scores}
}
