// Package classify scores a feature vector against a versioned playstyle
// schema. Schemas are data, not code: three built-in presets ship with the
// binary and custom ones load from YAML.
package classify

import (
	"fmt"
	"math"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/combatlab/playstyle/internal/feature"
)

// Preset names.
const (
	SchemaClassicV1  = "classic-v1"
	SchemaMovementV2 = "movement-v2"
	SchemaTacticalV3 = "tactical-v3"

	DefaultSchema = SchemaTacticalV3
)

// maxSumTolerance absorbs float drift when summing row weights.
const maxSumTolerance = 1e-9

// TierRow binds a numeric indicator to a three-tier weight: value < Low
// scores WBelow, Low <= value <= High scores WMid, value > High scores
// WAbove. A single-threshold rule collapses to Low == High.
type TierRow struct {
	Feature string  `koanf:"feature"`
	Low     float64 `koanf:"low"`
	High    float64 `koanf:"high"`
	WBelow  float64 `koanf:"below"`
	WMid    float64 `koanf:"mid"`
	WAbove  float64 `koanf:"above"`
}

func (r TierRow) weightFor(v float64) float64 {
	switch {
	case v < r.Low:
		return r.WBelow
	case v > r.High:
		return r.WAbove
	default:
		return r.WMid
	}
}

func (r TierRow) maxWeight() float64 {
	return math.Max(r.WBelow, math.Max(r.WMid, r.WAbove))
}

// LabelSpec is one archetype's scoring table. Exactly one engagement-range
// bucket applies per session, so RangeWeights contributes at most its
// largest entry.
type LabelSpec struct {
	Name         string             `koanf:"name"`
	Rows         []TierRow          `koanf:"rows"`
	RangeWeights map[string]float64 `koanf:"range_weights"`
}

func (l LabelSpec) maxSum() float64 {
	sum := 0.0
	for _, r := range l.Rows {
		sum += r.maxWeight()
	}
	best := 0.0
	for _, w := range l.RangeWeights {
		best = math.Max(best, w)
	}
	return sum + best
}

// Schema is a complete versioned scoring table. Label order is significant:
// it is the tie-break precedence.
type Schema struct {
	Name   string      `koanf:"name"`
	Labels []LabelSpec `koanf:"labels"`
}

// Validate checks the schema invariants: at least one label, every row bound
// to a known numeric indicator, known range buckets, and per-label maximum
// attainable score no greater than 1.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	if len(s.Labels) == 0 {
		return fmt.Errorf("schema %s: no labels", s.Name)
	}
	var probe feature.Vector
	validBuckets := map[string]bool{
		feature.RangeUnknown:    true,
		feature.RangePointBlank: true,
		feature.RangeClose:      true,
		feature.RangeMedium:     true,
		feature.RangeLong:       true,
	}
	seen := map[string]bool{}
	for _, l := range s.Labels {
		if l.Name == "" {
			return fmt.Errorf("schema %s: label with no name", s.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("schema %s: duplicate label %q", s.Name, l.Name)
		}
		seen[l.Name] = true
		for _, r := range l.Rows {
			if _, ok := probe.Value(r.Feature); !ok {
				return fmt.Errorf("schema %s, label %s: unknown feature %q", s.Name, l.Name, r.Feature)
			}
			if r.Low > r.High {
				return fmt.Errorf("schema %s, label %s, feature %s: low %v > high %v",
					s.Name, l.Name, r.Feature, r.Low, r.High)
			}
		}
		for b := range l.RangeWeights {
			if !validBuckets[b] {
				return fmt.Errorf("schema %s, label %s: unknown range bucket %q", s.Name, l.Name, b)
			}
		}
		if max := l.maxSum(); max > 1+maxSumTolerance {
			return fmt.Errorf("schema %s, label %s: max attainable score %v exceeds 1", s.Name, l.Name, max)
		}
	}
	return nil
}

// LabelNames returns the labels in precedence order.
func (s *Schema) LabelNames() []string {
	names := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		names[i] = l.Name
	}
	return names
}

// Preset returns a built-in schema by name.
func Preset(name string) (*Schema, error) {
	switch name {
	case SchemaClassicV1:
		return classicV1(), nil
	case SchemaMovementV2:
		return movementV2(), nil
	case SchemaTacticalV3:
		return tacticalV3(), nil
	}
	return nil, fmt.Errorf("unknown schema %q (have %v)", name, PresetNames())
}

// PresetNames lists the built-in schemas.
func PresetNames() []string {
	names := []string{SchemaClassicV1, SchemaMovementV2, SchemaTacticalV3}
	sort.Strings(names)
	return names
}

// LoadFile reads and validates a schema from a YAML file.
func LoadFile(path string) (*Schema, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load schema file: %w", err)
	}
	var s Schema
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("decode schema file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Built-in presets ---

// single builds a single-threshold row: below fires wLow, strictly above
// fires wHigh.
func single(feat string, threshold, wLow, wHigh float64) TierRow {
	return TierRow{Feature: feat, Low: threshold, High: threshold, WBelow: wLow, WAbove: wHigh}
}

// classicV1 is a direct port of the first-generation analyzer's threshold
// table, four labels including sniper. Weights fire on one side of each
// threshold only.
func classicV1() *Schema {
	return &Schema{
		Name: SchemaClassicV1,
		Labels: []LabelSpec{
			{Name: "aggressive", Rows: []TierRow{
				single("avg_enemy_distance", 100, 0.3, 0),
				single("kill_rate", 0.2, 0, 0.3),
				single("near_cover_pct", 0.3, 0.2, 0),
				single("damage_dealt", 100, 0, 0.2),
			}},
			{Name: "defensive", Rows: []TierRow{
				single("near_cover_pct", 0.6, 0, 0.3),
				single("avg_enemy_distance", 200, 0, 0.2),
				single("survivability", 0.5, 0.3, 0),
				single("kill_rate", 0.1, 0.2, 0),
			}},
			{Name: "sniper", Rows: []TierRow{
				single("avg_enemy_distance", 200, 0, 0.3),
				single("shot_accuracy", 0.5, 0, 0.3),
				single("mobility_index", 100, 0, 0.2),
				single("damage_efficiency", 2.0, 0, 0.2),
			}},
			{Name: "chaotic", Rows: []TierRow{
				single("shot_accuracy", 0.3, 0.3, 0),
				single("survivability", 1.0, 0, 0.3),
				single("damage_efficiency", 1.0, 0.2, 0),
				{Feature: "mobility_index", Low: 30, High: 200, WBelow: 0.2, WAbove: 0.2},
			}},
		},
	}
}

// movementV2 folds the movement-direction shares in and drops the sniper
// label, whose sessions it splits between defensive and chaotic.
func movementV2() *Schema {
	return &Schema{
		Name: SchemaMovementV2,
		Labels: []LabelSpec{
			{Name: "aggressive", Rows: []TierRow{
				single("avg_enemy_distance", 100, 0.25, 0),
				single("kill_rate", 0.2, 0, 0.25),
				single("pursuit_pct", 0.4, 0, 0.3),
				single("cover_usage_pct", 0.3, 0.2, 0),
			}},
			{Name: "defensive", Rows: []TierRow{
				single("cover_usage_pct", 0.5, 0, 0.3),
				single("retreat_pct", 0.4, 0, 0.3),
				single("avg_enemy_distance", 200, 0, 0.2),
				single("survivability", 0.5, 0.2, 0),
			}},
			{Name: "chaotic", Rows: []TierRow{
				single("shot_accuracy", 0.3, 0.3, 0),
				single("survivability", 1.0, 0, 0.3),
				single("neutral_pct", 0.6, 0, 0.2),
				{Feature: "mobility_index", Low: 30, High: 200, WBelow: 0.2, WAbove: 0.2},
			}},
		},
	}
}

// tacticalV3 is the current table: fully tiered rows over the rich indicator
// set, per-label weights summing to exactly 1.0 at the maximum tier.
func tacticalV3() *Schema {
	return &Schema{
		Name: SchemaTacticalV3,
		Labels: []LabelSpec{
			{
				Name: "aggressive",
				Rows: []TierRow{
					{Feature: "pursuit_pct", Low: 0.25, High: 0.5, WBelow: 0, WMid: 0.10, WAbove: 0.20},
					{Feature: "avg_enemy_distance", Low: 100, High: 200, WBelow: 0.15, WMid: 0.05, WAbove: 0},
					{Feature: "kill_rate", Low: 0.1, High: 0.2, WBelow: 0, WMid: 0.08, WAbove: 0.15},
					{Feature: "effective_cover_usage", Low: 0.3, High: 0.6, WBelow: 0.15, WMid: 0.05, WAbove: 0},
					{Feature: "mobility_index", Low: 100, High: 200, WBelow: 0, WMid: 0.08, WAbove: 0.15},
					{Feature: "tactical_positioning_score", Low: 0.35, High: 0.65, WBelow: 0.10, WMid: 0.05, WAbove: 0},
				},
				RangeWeights: map[string]float64{
					feature.RangePointBlank: 0.10,
					feature.RangeClose:      0.05,
				},
			},
			{
				Name: "defensive",
				Rows: []TierRow{
					{Feature: "tactical_positioning_score", Low: 0.35, High: 0.65, WBelow: 0, WMid: 0.08, WAbove: 0.18},
					{Feature: "retreat_pct", Low: 0.25, High: 0.5, WBelow: 0, WMid: 0.08, WAbove: 0.15},
					{Feature: "avg_enemy_distance", Low: 150, High: 250, WBelow: 0, WMid: 0.06, WAbove: 0.12},
					{Feature: "effective_cover_usage", Low: 0.3, High: 0.6, WBelow: 0, WMid: 0.08, WAbove: 0.15},
					{Feature: "survivability", Low: 0.5, High: 1.0, WBelow: 0.12, WMid: 0.05, WAbove: 0},
					{Feature: "shot_accuracy", Low: 0.3, High: 0.5, WBelow: 0, WMid: 0.05, WAbove: 0.10},
					{Feature: "damage_efficiency", Low: 1.0, High: 2.0, WBelow: 0, WMid: 0.05, WAbove: 0.10},
					{Feature: "defensive_action_ratio", Low: 0.01, High: 0.3, WBelow: 0, WMid: 0.04, WAbove: 0.08},
				},
			},
			{
				Name: "chaotic",
				Rows: []TierRow{
					{Feature: "shot_accuracy", Low: 0.15, High: 0.3, WBelow: 0.18, WMid: 0.08, WAbove: 0},
					{Feature: "survivability", Low: 0.5, High: 1.0, WBelow: 0, WMid: 0.06, WAbove: 0.16},
					{Feature: "neutral_pct", Low: 0.4, High: 0.7, WBelow: 0, WMid: 0.06, WAbove: 0.14},
					{Feature: "damage_efficiency", Low: 0.5, High: 1.0, WBelow: 0.12, WMid: 0.05, WAbove: 0},
					{Feature: "kill_rate", Low: 0.05, High: 0.1, WBelow: 0.10, WMid: 0.04, WAbove: 0},
					{Feature: "avg_enemy_distance", Low: 100, High: 200, WBelow: 0, WMid: 0.08, WAbove: 0},
					{Feature: "tactical_positioning_score", Low: 0.3, High: 0.6, WBelow: 0.12, WMid: 0.05, WAbove: 0},
				},
				RangeWeights: map[string]float64{
					feature.RangeUnknown: 0.10,
				},
			},
		},
	}
}
