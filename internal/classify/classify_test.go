package classify

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/combatlab/playstyle/internal/feature"
)

func TestPresets_AllValid(t *testing.T) {
	for _, name := range PresetNames() {
		s, err := Preset(name)
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("preset %s fails self-check: %v", name, err)
		}
	}
}

func TestPreset_Unknown(t *testing.T) {
	if _, err := Preset("vibes-v9"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestPresets_MaxSumExactlyOne(t *testing.T) {
	// The tiered table is tuned so every label can reach a full score of 1.
	s, _ := Preset(SchemaTacticalV3)
	for _, l := range s.Labels {
		if got := l.maxSum(); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("label %s: max attainable = %v, want 1.0", l.Name, got)
		}
	}
}

// The classic table must reproduce the first-generation analyzer's raw
// scores exactly: an accurate, mobile, close-range killer reads 1.0
// aggressive and 0.7 sniper.
func TestClassicV1_RawScores(t *testing.T) {
	v := &feature.Vector{
		AvgEnemyDistance: 80,
		KillRate:         0.25,
		NearCoverPct:     0.1,
		DamageDealt:      500,
		ShotAccuracy:     0.6,
		MobilityIndex:    150,
		DamageEfficiency: 3.0,
		Survivability:    0.8,
	}
	s, _ := Preset(SchemaClassicV1)
	res := s.Evaluate(v)

	want := map[string]float64{
		"aggressive": 1.0,
		"defensive":  0.0,
		"sniper":     0.7,
		"chaotic":    0.0,
	}
	for _, sc := range res.Scores {
		if math.Abs(sc.Raw-want[sc.Label]) > 1e-9 {
			t.Errorf("%s raw = %v, want %v", sc.Label, sc.Raw, want[sc.Label])
		}
	}
	if res.Primary().Label != "aggressive" {
		t.Errorf("primary = %s, want aggressive", res.Primary().Label)
	}
	sec, ok := res.Secondary()
	if !ok || sec.Label != "sniper" {
		t.Errorf("secondary = %v, want sniper", sec.Label)
	}
}

func TestEvaluate_ConfidencesSumToOne(t *testing.T) {
	v := &feature.Vector{
		AvgEnemyDistance: 150,
		KillRate:         0.12,
		PursuitPct:       0.3,
		RetreatPct:       0.3,
		NeutralPct:       0.4,
		ShotAccuracy:     0.4,
		Survivability:    0.7,
		DamageEfficiency: 1.5,
		MobilityIndex:    120,
		EngagementRange:  feature.RangeMedium,
	}
	for _, name := range PresetNames() {
		s, _ := Preset(name)
		res := s.Evaluate(v)
		total := 0.0
		for _, sc := range res.Scores {
			total += sc.Confidence
		}
		if math.Abs(total-1.0) > 1e-9 {
			t.Errorf("%s: confidences sum to %v", name, total)
		}
	}
}

func TestEvaluate_RetreatMonotoneForDefensive(t *testing.T) {
	s, _ := Preset(SchemaTacticalV3)
	base := feature.Vector{
		AvgEnemyDistance: 200,
		Survivability:    0.3,
		ShotAccuracy:     0.4,
		EngagementRange:  feature.RangeMedium,
	}
	prev := -1.0
	for _, retreat := range []float64{0.0, 0.2, 0.3, 0.45, 0.6, 0.9} {
		v := base
		v.RetreatPct = retreat
		raw := 0.0
		for _, sc := range s.Evaluate(&v).Scores {
			if sc.Label == "defensive" {
				raw = sc.Raw
			}
		}
		if raw < prev {
			t.Fatalf("defensive raw dropped from %v to %v as retreat_pct rose to %v", prev, raw, retreat)
		}
		prev = raw
	}
}

func TestEvaluate_TieBreaksBySchemaOrder(t *testing.T) {
	s := &Schema{
		Name: "tie",
		Labels: []LabelSpec{
			{Name: "first", Rows: []TierRow{single("kill_rate", 0.1, 0, 0.5)}},
			{Name: "second", Rows: []TierRow{single("kill_rate", 0.1, 0, 0.5)}},
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	res := s.Evaluate(&feature.Vector{KillRate: 0.2})
	if res.Primary().Label != "first" {
		t.Fatalf("equal scores must resolve to schema order, got %s", res.Primary().Label)
	}
}

func TestEvaluate_UninformativeVectorStaysZero(t *testing.T) {
	s := &Schema{
		Name: "strict",
		Labels: []LabelSpec{
			{Name: "a", Rows: []TierRow{single("kill_rate", 0.5, 0, 0.9)}},
			{Name: "b", Rows: []TierRow{single("retreat_pct", 0.5, 0, 0.9)}},
		},
	}
	res := s.Evaluate(&feature.Vector{})
	for _, sc := range res.Scores {
		if sc.Raw != 0 || sc.Confidence != 0 {
			t.Fatalf("nothing fired, expected all-zero scores, got %+v", res.Scores)
		}
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		schema Schema
	}{
		{"no labels", Schema{Name: "x"}},
		{"unknown feature", Schema{Name: "x", Labels: []LabelSpec{
			{Name: "a", Rows: []TierRow{single("charisma", 1, 0, 0.5)}},
		}}},
		{"low above high", Schema{Name: "x", Labels: []LabelSpec{
			{Name: "a", Rows: []TierRow{{Feature: "kill_rate", Low: 2, High: 1, WMid: 0.5}}},
		}}},
		{"overweight label", Schema{Name: "x", Labels: []LabelSpec{
			{Name: "a",
				Rows:         []TierRow{single("kill_rate", 0.1, 0, 0.7)},
				RangeWeights: map[string]float64{feature.RangeClose: 0.4}},
		}}},
		{"bad range bucket", Schema{Name: "x", Labels: []LabelSpec{
			{Name: "a", RangeWeights: map[string]float64{"orbital": 0.1}},
		}}},
		{"duplicate label", Schema{Name: "x", Labels: []LabelSpec{
			{Name: "a"}, {Name: "a"},
		}}},
	}
	for _, c := range cases {
		if err := c.schema.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestLoadFile_YAML(t *testing.T) {
	doc := `
name: custom
labels:
  - name: rusher
    rows:
      - feature: pursuit_pct
        low: 0.2
        high: 0.5
        mid: 0.3
        above: 0.6
    range_weights:
      close: 0.2
  - name: camper
    rows:
      - feature: retreat_pct
        low: 0.2
        high: 0.5
        mid: 0.3
        above: 0.6
`
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "custom" || len(s.Labels) != 2 {
		t.Fatalf("decoded schema = %+v", s)
	}

	res := s.Evaluate(&feature.Vector{PursuitPct: 0.7, EngagementRange: feature.RangeClose})
	if res.Primary().Label != "rusher" {
		t.Fatalf("primary = %s", res.Primary().Label)
	}
	if math.Abs(res.Primary().Raw-0.8) > 1e-9 {
		t.Fatalf("rusher raw = %v, want 0.8", res.Primary().Raw)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestLoadFile_InvalidSchemaRejected(t *testing.T) {
	doc := `
name: broken
labels:
  - name: a
    rows:
      - feature: not_a_feature
        above: 0.5
`
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("unknown feature must be rejected")
	}
}
