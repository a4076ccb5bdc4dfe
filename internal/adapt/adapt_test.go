package adapt

import (
	"math"
	"testing"
)

func TestPlanFor_KnownLabels(t *testing.T) {
	mods := map[string]float64{
		"aggressive": 1.2,
		"defensive":  1.1,
		"sniper":     1.15,
		"chaotic":    0.9,
	}
	for _, label := range Labels() {
		d := PlanFor(label)
		if d.DifficultyModifier != mods[label] {
			t.Errorf("%s difficulty = %v, want %v", label, d.DifficultyModifier, mods[label])
		}
		if len(d.Recommendations) != 5 {
			t.Errorf("%s has %d recommendations, want 5", label, len(d.Recommendations))
		}
		if d.Strategy == "" {
			t.Errorf("%s has empty strategy", label)
		}
		if sum := d.EnemyTypeRatio.Basic + d.EnemyTypeRatio.Sniper; math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%s enemy ratio sums to %v", label, sum)
		}
	}
}

func TestPlanFor_CountersAggressionWithRange(t *testing.T) {
	d := PlanFor("aggressive")
	if d.EnemyTypeRatio.Sniper <= d.EnemyTypeRatio.Basic {
		t.Error("aggressive players should face a sniper-heavy mix")
	}
	if d.DifficultyModifier <= 1.0 {
		t.Error("aggressive plan should raise difficulty")
	}
}

func TestPlanFor_UnknownFallsBackToDefensive(t *testing.T) {
	unknown := PlanFor("keyboard_cat")
	if unknown.Strategy != PlanFor("defensive").Strategy {
		t.Fatal("unknown label must yield the defensive directive")
	}
}
