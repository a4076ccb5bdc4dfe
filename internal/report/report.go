// Package report assembles the per-session analysis record, renders the
// human-readable report, and runs the batch validation pipeline over labeled
// corpora.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/combatlab/playstyle/internal/adapt"
	"github.com/combatlab/playstyle/internal/classify"
	"github.com/combatlab/playstyle/internal/feature"
	"github.com/combatlab/playstyle/internal/session"
)

// Classification is the flattened scoring summary persisted with each
// analysis.
type Classification struct {
	Schema              string             `json:"schema"`
	Primary             string             `json:"primary"`
	PrimaryConfidence   float64            `json:"primary_confidence"`
	Secondary           string             `json:"secondary,omitempty"`
	SecondaryConfidence float64            `json:"secondary_confidence,omitempty"`
	AllScores           map[string]float64 `json:"all_scores"`
}

// Analysis is the complete output record for one session.
type Analysis struct {
	SessionID         string          `json:"session_id"`
	PlaystyleLabel    string          `json:"playstyle_label,omitempty"`
	AnalysisTimestamp string          `json:"analysis_timestamp"`
	Classification    Classification  `json:"classification"`
	Features          feature.Vector  `json:"features"`
	Adaptations       adapt.Directive `json:"adaptations"`

	// Kept for the human report, not persisted.
	record *session.Record
}

// Analyze runs the full pipeline on one validated record: extract, score,
// plan. The timestamp is injected for reproducible output.
func Analyze(rec *session.Record, schema *classify.Schema, now time.Time) *Analysis {
	vec := feature.Extract(rec)
	res := schema.Evaluate(&vec)

	cls := Classification{
		Schema:            res.Schema,
		Primary:           res.Primary().Label,
		PrimaryConfidence: res.Primary().Confidence,
		AllScores:         make(map[string]float64, len(res.Scores)),
	}
	if sec, ok := res.Secondary(); ok {
		cls.Secondary = sec.Label
		cls.SecondaryConfidence = sec.Confidence
	}
	for _, sc := range res.Scores {
		cls.AllScores[sc.Label] = sc.Confidence
	}

	return &Analysis{
		SessionID:         rec.SessionID,
		PlaystyleLabel:    rec.PlaystyleLabel,
		AnalysisTimestamp: now.Format(time.RFC3339),
		Classification:    cls,
		Features:          vec,
		Adaptations:       adapt.PlanFor(cls.Primary),
		record:            rec,
	}
}

// AnalyzeFile loads, validates, and analyzes one session file.
func AnalyzeFile(path string, schema *classify.Schema, now time.Time) (*Analysis, error) {
	rec, err := session.Load(path)
	if err != nil {
		return nil, err
	}
	return Analyze(rec, schema, now), nil
}

// Filename is the conventional on-disk name for this analysis.
func (a *Analysis) Filename() string {
	return "analysis_" + a.SessionID + ".json"
}

// Save writes the analysis as indented JSON, creating directories as needed.
func (a *Analysis) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create analysis directory: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

const rule = "======================================================================"

// Render produces the human-readable session report.
func (a *Analysis) Render() string {
	f := a.Features
	c := a.Classification

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPLAYER BEHAVIOR ANALYSIS REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Session ID: %s\n", a.SessionID)
	fmt.Fprintf(&b, "Duration: %.1f seconds\n", f.SessionDuration)
	if a.record != nil {
		when := time.Unix(0, int64(a.record.StartTime*1e9))
		fmt.Fprintf(&b, "Date: %s\n", when.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Schema: %s\n", c.Schema)

	fmt.Fprintf(&b, "\n%s\nCLASSIFICATION\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Primary Style:    %s\n", strings.ToUpper(c.Primary))
	fmt.Fprintf(&b, "Confidence:       %.1f%%\n", c.PrimaryConfidence*100)
	if c.Secondary != "" {
		fmt.Fprintf(&b, "\nSecondary Trait:  %s\n", strings.ToUpper(c.Secondary))
		fmt.Fprintf(&b, "Confidence:       %.1f%%\n", c.SecondaryConfidence*100)
	}

	b.WriteString("\nAll Scores:\n")
	for _, label := range scoreOrder(c) {
		fmt.Fprintf(&b, "  - %-11s %.1f%%\n", label+":", c.AllScores[label]*100)
	}

	fmt.Fprintf(&b, "\n%s\nKEY METRICS\n%s\n\n", rule, rule)
	b.WriteString("Combat Performance:\n")
	fmt.Fprintf(&b, "  - Shot Accuracy:        %.1f%%\n", f.ShotAccuracy*100)
	fmt.Fprintf(&b, "  - Shots Fired:          %.0f\n", f.ShotsFired)
	fmt.Fprintf(&b, "  - Damage Dealt:         %.0f\n", f.DamageDealt)
	fmt.Fprintf(&b, "  - Damage Efficiency:    %.2fx\n", f.DamageEfficiency)
	fmt.Fprintf(&b, "  - Kills per Second:     %.3f\n", f.KillRate)
	fmt.Fprintf(&b, "  - Shots per Second:     %.2f\n", f.ShotFrequency)
	b.WriteString("\nSpatial Behavior:\n")
	fmt.Fprintf(&b, "  - Avg Enemy Distance:   %.1f px\n", f.AvgEnemyDistance)
	fmt.Fprintf(&b, "  - Engagement Range:     %s\n", f.EngagementRange)
	fmt.Fprintf(&b, "  - Cover Usage:          %.1f%%\n", f.CoverUsagePct*100)
	fmt.Fprintf(&b, "  - Effective Cover Use:  %.1f%%\n", f.EffectiveCoverUsage*100)
	fmt.Fprintf(&b, "  - Mobility Index:       %.1f px/sec\n", f.MobilityIndex)
	fmt.Fprintf(&b, "  - Tactical Positioning: %.2f\n", f.TacticalPositioningScore)
	b.WriteString("\nMovement Tendencies:\n")
	fmt.Fprintf(&b, "  - Pursuit:              %.1f%%\n", f.PursuitPct*100)
	fmt.Fprintf(&b, "  - Retreat:              %.1f%%\n", f.RetreatPct*100)
	fmt.Fprintf(&b, "  - Neutral:              %.1f%%\n", f.NeutralPct*100)
	fmt.Fprintf(&b, "  - Survivability:        %.2f dmg/sec\n", f.Survivability)

	ad := a.Adaptations
	fmt.Fprintf(&b, "\n%s\nRECOMMENDED ENEMY ADAPTATIONS\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Strategy: %s\n\nSpecific Recommendations:\n", ad.Strategy)
	for i, rec := range ad.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
	}
	b.WriteString("\nEnemy Type Ratio:\n")
	fmt.Fprintf(&b, "  - Basic (Aggressive): %.0f%%\n", ad.EnemyTypeRatio.Basic*100)
	fmt.Fprintf(&b, "  - Sniper (Ranged):    %.0f%%\n", ad.EnemyTypeRatio.Sniper*100)
	fmt.Fprintf(&b, "\nDifficulty Modifier: %gx\n\n%s\n", ad.DifficultyModifier, rule)
	return b.String()
}

// scoreOrder lists labels primary first, then the rest by confidence
// descending with name as the deterministic tie-break.
func scoreOrder(c Classification) []string {
	order := []string{c.Primary}
	if c.Secondary != "" {
		order = append(order, c.Secondary)
	}
	var rest []string
	for label := range c.AllScores {
		if label != c.Primary && label != c.Secondary {
			rest = append(rest, label)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if c.AllScores[rest[i]] != c.AllScores[rest[j]] {
			return c.AllScores[rest[i]] > c.AllScores[rest[j]]
		}
		return rest[i] < rest[j]
	})
	return append(order, rest...)
}
