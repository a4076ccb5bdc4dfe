package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/combatlab/playstyle/internal/classify"
	"github.com/combatlab/playstyle/pkg/logger"
)

// sessionGlob matches the session files the capture layer writes.
const sessionGlob = "gameplay_data_*.json"

// FileResult is one session's outcome within a batch.
type FileResult struct {
	Filename   string  `json:"filename"`
	SessionID  string  `json:"session_id"`
	Label      string  `json:"label,omitempty"`
	Predicted  string  `json:"predicted"`
	Confidence float64 `json:"confidence"`
	Correct    *bool   `json:"correct,omitempty"` // nil when unlabeled
}

// Summary aggregates a directory batch. Skipped counts files that failed to
// load or validate; they are logged, not fatal.
type Summary struct {
	Directory string       `json:"directory"`
	Expected  string       `json:"expected_playstyle"`
	Results   []FileResult `json:"results"`
	Labeled   int          `json:"labeled_sessions"`
	Correct   int          `json:"correct_classifications"`
	Skipped   int          `json:"skipped_files"`
}

// Accuracy is the labeled-session hit rate; zero when nothing is labeled.
func (s *Summary) Accuracy() float64 {
	if s.Labeled == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Labeled)
}

// Distribution counts predictions per label, most common first.
func (s *Summary) Distribution() []LabelCount {
	counts := map[string]int{}
	for _, r := range s.Results {
		counts[r.Predicted]++
	}
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// LabelCount is one entry of a prediction distribution.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Batch runs the analysis pipeline over directories of session files.
type Batch struct {
	Schema *classify.Schema
	OutDir string // analyses land under OutDir/<expected playstyle>/
	Now    func() time.Time
	Log    logger.Logger
}

func (b *Batch) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// AnalyzeDir analyzes every session file in dir. The directory basename is
// the expected playstyle label for validation. Per-file failures are logged
// and skipped; an empty directory is an error.
func (b *Batch) AnalyzeDir(ctx context.Context, dir string) (*Summary, error) {
	files, err := filepath.Glob(filepath.Join(dir, sessionGlob))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no session files matching %s in %s", sessionGlob, dir)
	}
	sort.Strings(files)

	expected := filepath.Base(filepath.Clean(dir))
	outDir := filepath.Join(b.OutDir, expected)
	sum := &Summary{Directory: dir, Expected: expected}
	b.Log.Info(ctx, "analyzing directory",
		logger.String("dir", dir),
		logger.Int("files", len(files)),
		logger.String("schema", b.Schema.Name))

	for _, path := range files {
		a, err := AnalyzeFile(path, b.Schema, b.now())
		if err != nil {
			sum.Skipped++
			b.Log.Warn(ctx, "skipping session file", logger.String("file", path), logger.Error(err))
			continue
		}
		if err := a.Save(filepath.Join(outDir, a.Filename())); err != nil {
			sum.Skipped++
			b.Log.Warn(ctx, "skipping session file", logger.String("file", path), logger.Error(err))
			continue
		}

		res := FileResult{
			Filename:   filepath.Base(path),
			SessionID:  a.SessionID,
			Label:      a.PlaystyleLabel,
			Predicted:  a.Classification.Primary,
			Confidence: a.Classification.PrimaryConfidence,
		}
		if res.Label != "" {
			correct := res.Label == res.Predicted
			res.Correct = &correct
			sum.Labeled++
			if correct {
				sum.Correct++
			}
		}
		sum.Results = append(sum.Results, res)
		b.Log.Debug(ctx, "session analyzed",
			logger.String("session", a.SessionID),
			logger.String("predicted", res.Predicted),
			logger.Float64("confidence", res.Confidence))
	}

	if err := writeAggregate(filepath.Join(outDir, "aggregate_report.txt"), sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// AnalyzeAll runs AnalyzeDir for every subdirectory of root that holds
// session files, returning summaries keyed by playstyle.
func (b *Batch) AnalyzeAll(ctx context.Context, root string) ([]*Summary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root: %w", err)
	}
	var sums []*Summary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		matches, _ := filepath.Glob(filepath.Join(dir, sessionGlob))
		if len(matches) == 0 {
			continue
		}
		sum, err := b.AnalyzeDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("no playstyle directories with session files under %s", root)
	}
	return sums, nil
}

// RenderSummary produces the aggregate text report for one directory batch.
func RenderSummary(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nAGGREGATE ANALYSIS REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Directory: %s\n", s.Directory)
	fmt.Fprintf(&b, "Expected Playstyle: %s\n", s.Expected)
	fmt.Fprintf(&b, "Total Sessions: %d\n", len(s.Results))
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "Skipped Files: %d\n", s.Skipped)
	}

	if s.Labeled > 0 {
		b.WriteString("\nLabel Validation:\n")
		fmt.Fprintf(&b, "  Labeled Sessions: %d\n", s.Labeled)
		fmt.Fprintf(&b, "  Correct Classifications: %d\n", s.Correct)
		fmt.Fprintf(&b, "  Accuracy: %.1f%%\n", s.Accuracy()*100)
	} else {
		b.WriteString("\nNo labeled data found for validation\n")
	}

	b.WriteString("\nClassification Distribution:\n")
	for _, lc := range s.Distribution() {
		pct := float64(lc.Count) / float64(len(s.Results)) * 100
		fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", lc.Label, lc.Count, pct)
	}

	b.WriteString("\nIndividual Results:\n")
	for _, r := range s.Results {
		status := "-"
		if r.Correct != nil {
			if *r.Correct {
				status = "ok"
			} else {
				status = "MISS"
			}
		}
		label := r.Label
		if label == "" {
			label = "unlabeled"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s -> %s (%.1f%%)\n",
			status, r.Filename, label, r.Predicted, r.Confidence*100)
	}
	return b.String()
}

func writeAggregate(path string, s *Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderSummary(s)), 0o644); err != nil {
		return fmt.Errorf("write aggregate report: %w", err)
	}
	return nil
}
