// Command analyze classifies combat session records: a single file, a
// labeled directory, or a whole corpus of playstyle directories.
//
// Usage:
//
//	analyze gameplay_data_20250922_154913_ab12cd34.json
//	analyze -dir gameplay_data/defensive
//	analyze -all gameplay_data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"github.com/combatlab/playstyle/internal/classify"
	"github.com/combatlab/playstyle/internal/report"
	"github.com/combatlab/playstyle/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var (
		dirMode    string
		allMode    string
		schemaName string
		schemaFile string
		outDir     string
		copyOut    bool
		logLevel   string
	)
	flag.StringVar(&dirMode, "dir", "", "analyze every session file in one labeled directory")
	flag.StringVar(&allMode, "all", "", "analyze every playstyle subdirectory under a corpus root")
	flag.StringVar(&schemaName, "schema", cfg.Schema,
		fmt.Sprintf("scoring schema preset %v", classify.PresetNames()))
	flag.StringVar(&schemaFile, "schema-file", cfg.SchemaFile, "YAML schema file overriding -schema")
	flag.StringVar(&outDir, "out", cfg.Out, "directory for analysis output")
	flag.BoolVar(&copyOut, "copy", false, "copy the rendered report to the clipboard (single-file mode)")
	flag.StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	flag.Parse()

	log := logger.Named("analyze")
	if err := logger.SetLevelString(logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	ctx := context.Background()

	schema, err := resolveSchema(schemaName, schemaFile)
	if err != nil {
		log.Error(ctx, "schema", logger.Error(err))
		return 1
	}

	batch := &report.Batch{
		Schema: schema,
		OutDir: outDir,
		Log:    log,
	}

	switch {
	case allMode != "":
		sums, err := batch.AnalyzeAll(ctx, allMode)
		if err != nil {
			log.Error(ctx, "corpus analysis failed", logger.Error(err))
			return 1
		}
		for _, sum := range sums {
			fmt.Print(report.RenderSummary(sum))
			fmt.Println()
		}
		return 0

	case dirMode != "":
		sum, err := batch.AnalyzeDir(ctx, dirMode)
		if err != nil {
			log.Error(ctx, "directory analysis failed", logger.Error(err))
			return 1
		}
		fmt.Print(report.RenderSummary(sum))
		return 0
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <gameplay_data.json> | -dir <path> | -all <root>")
		flag.PrintDefaults()
		return 2
	}
	return analyzeOne(ctx, log, flag.Arg(0), schema, outDir, copyOut)
}

func analyzeOne(ctx context.Context, log logger.Logger, path string, schema *classify.Schema, outDir string, copyOut bool) int {
	a, err := report.AnalyzeFile(path, schema, time.Now())
	if err != nil {
		log.Error(ctx, "analysis failed", logger.String("file", path), logger.Error(err))
		return 1
	}

	rendered := a.Render()
	fmt.Print(rendered)

	outPath := filepath.Join(outDir, a.Filename())
	if err := a.Save(outPath); err != nil {
		log.Error(ctx, "save failed", logger.Error(err))
		return 1
	}
	log.Info(ctx, "analysis saved",
		logger.String("file", outPath),
		logger.String("primary", a.Classification.Primary),
		logger.Float64("confidence", a.Classification.PrimaryConfidence))

	if copyOut {
		if err := clipboard.WriteAll(rendered); err != nil {
			// Headless hosts have no clipboard; the report already printed.
			log.Warn(ctx, "clipboard copy failed", logger.Error(err))
		}
	}
	return 0
}

func resolveSchema(name, file string) (*classify.Schema, error) {
	if file != "" {
		return classify.LoadFile(file)
	}
	return classify.Preset(name)
}
