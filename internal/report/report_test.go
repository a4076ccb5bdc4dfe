package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/combatlab/playstyle/internal/classify"
	"github.com/combatlab/playstyle/internal/session"
	"github.com/combatlab/playstyle/pkg/logger"
)

// aggressiveRecord builds a session that reads unambiguously aggressive
// under the current schema: close-range, high-pursuit, killing quickly.
func aggressiveRecord(id, label string) *session.Record {
	rec := &session.Record{
		SessionID:      id,
		PlaystyleLabel: label,
		StartTime:      1000,
		EndTime:        1060,
		PlayerStats: session.PlayerStats{
			ShotsFired:       50,
			ShotsHit:         20,
			TotalDamageDealt: 500,
			TotalDamageTaken: 20,
			EnemiesKilled:    10,
			DistanceTraveled: 9000,
			PursuitFrames:    800,
			RetreatFrames:    100,
			NeutralFrames:    100,
		},
	}
	for i := 0; i < 5; i++ {
		rec.AppendEvent(1001+float64(i), session.EventShotFired, session.EventData{
			Position:       []float64{0, 0},
			TargetPosition: []float64{40, 0},
		})
	}
	rec.BehavioralMetrics = []session.BehavioralSample{
		{AvgEnemyDistance: 80}, {AvgEnemyDistance: 80},
	}
	return rec
}

func testSchema(t *testing.T) *classify.Schema {
	t.Helper()
	s, err := classify.Preset(classify.DefaultSchema)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAnalyze_EndToEnd(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	a := Analyze(aggressiveRecord("s1", "aggressive"), testSchema(t), now)

	if a.Classification.Primary != "aggressive" {
		t.Fatalf("primary = %s, want aggressive", a.Classification.Primary)
	}
	if a.Classification.PrimaryConfidence <= 0 {
		t.Error("primary confidence should be positive")
	}
	if a.AnalysisTimestamp != "2026-08-24T12:00:00Z" {
		t.Errorf("timestamp = %s", a.AnalysisTimestamp)
	}
	if a.Adaptations.DifficultyModifier != 1.2 {
		t.Errorf("aggressive adaptation difficulty = %v", a.Adaptations.DifficultyModifier)
	}
	if a.Filename() != "analysis_s1.json" {
		t.Errorf("filename = %s", a.Filename())
	}
}

func TestAnalysis_RenderSections(t *testing.T) {
	a := Analyze(aggressiveRecord("s1", ""), testSchema(t), time.Now())
	out := a.Render()
	for _, want := range []string{
		"PLAYER BEHAVIOR ANALYSIS REPORT",
		"Primary Style:    AGGRESSIVE",
		"KEY METRICS",
		"RECOMMENDED ENEMY ADAPTATIONS",
		"Deploy more sniper-type enemies",
		"Difficulty Modifier: 1.2x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func testBatch(t *testing.T, outDir string) *Batch {
	t.Helper()
	return &Batch{
		Schema: testSchema(t),
		OutDir: outDir,
		Now:    func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) },
		Log:    logger.Named("test"),
	}
}

func writeCorpusDir(t *testing.T, root, style string, n int) string {
	t.Helper()
	dir := filepath.Join(root, style)
	for i := 0; i < n; i++ {
		rec := aggressiveRecord("sess"+style+string(rune('a'+i)), style)
		if err := rec.Save(filepath.Join(dir, rec.Filename())); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBatch_AnalyzeDir(t *testing.T) {
	root := t.TempDir()
	dir := writeCorpusDir(t, root, "aggressive", 2)
	// A corrupt file must be skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "gameplay_data_bad.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(root, "analysis_results")
	sum, err := testBatch(t, out).AnalyzeDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(sum.Results) != 2 || sum.Skipped != 1 {
		t.Fatalf("results=%d skipped=%d, want 2/1", len(sum.Results), sum.Skipped)
	}
	if sum.Labeled != 2 || sum.Correct != 2 || sum.Accuracy() != 1.0 {
		t.Fatalf("labeled=%d correct=%d accuracy=%v", sum.Labeled, sum.Correct, sum.Accuracy())
	}

	for _, r := range sum.Results {
		if _, err := os.Stat(filepath.Join(out, "aggressive", "analysis_"+r.SessionID+".json")); err != nil {
			t.Errorf("missing analysis file for %s: %v", r.SessionID, err)
		}
	}
	agg, err := os.ReadFile(filepath.Join(out, "aggressive", "aggregate_report.txt"))
	if err != nil {
		t.Fatalf("aggregate report: %v", err)
	}
	if !strings.Contains(string(agg), "Accuracy: 100.0%") {
		t.Errorf("aggregate report missing accuracy line:\n%s", agg)
	}
}

func TestBatch_AnalyzeDir_MislabelCountsAgainstAccuracy(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "defensive")
	// Aggressive play mislabeled as defensive: accuracy 0.
	rec := aggressiveRecord("sx", "defensive")
	if err := rec.Save(filepath.Join(dir, rec.Filename())); err != nil {
		t.Fatal(err)
	}
	sum, err := testBatch(t, filepath.Join(root, "out")).AnalyzeDir(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Labeled != 1 || sum.Correct != 0 || sum.Accuracy() != 0 {
		t.Fatalf("labeled=%d correct=%d accuracy=%v", sum.Labeled, sum.Correct, sum.Accuracy())
	}
}

func TestBatch_AnalyzeDir_Empty(t *testing.T) {
	if _, err := testBatch(t, t.TempDir()).AnalyzeDir(context.Background(), t.TempDir()); err == nil {
		t.Fatal("empty directory should be an error")
	}
}

func TestBatch_AnalyzeAll(t *testing.T) {
	root := t.TempDir()
	writeCorpusDir(t, root, "aggressive", 1)
	writeCorpusDir(t, root, "chaotic", 1)
	// An empty subdirectory is ignored, not an error.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	sums, err := testBatch(t, filepath.Join(root, "out")).AnalyzeAll(context.Background(), root)
	if err != nil {
		t.Fatalf("analyze all: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("summaries = %d, want 2", len(sums))
	}
}

func TestRenderSummary_UnlabeledSessions(t *testing.T) {
	sum := &Summary{
		Directory: "x",
		Expected:  "mixed",
		Results: []FileResult{
			{Filename: "gameplay_data_a.json", SessionID: "a", Predicted: "chaotic", Confidence: 0.5},
		},
	}
	out := RenderSummary(sum)
	if !strings.Contains(out, "No labeled data found for validation") {
		t.Error("summary should note missing labels")
	}
	if !strings.Contains(out, "chaotic: 1 (100.0%)") {
		t.Errorf("distribution line missing:\n%s", out)
	}
}
