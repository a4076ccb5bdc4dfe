// Command collect generates labeled session corpora by running scripted
// bots through the headless arena. Records land where analyze -dir and
// analyze -all expect them:
//
//	collect -policy aggressive -runs 20 -out gameplay_data
//
// writes gameplay_data/aggressive/gameplay_data_<id>.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/combatlab/playstyle/internal/sim"
	"github.com/combatlab/playstyle/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		policyName string
		label      string
		ticks      int
		seed       int64
		runs       int
		outRoot    string
		logLevel   string
	)
	flag.StringVar(&policyName, "policy", string(sim.PolicyAggressive), "bot policy (aggressive|defensive|chaotic)")
	flag.StringVar(&label, "label", "", "playstyle label stamped on records (defaults to the policy name)")
	flag.IntVar(&ticks, "ticks", 7200, "tick budget per run (60 ticks per simulated second)")
	flag.Int64Var(&seed, "seed", 42, "base RNG seed; run i uses seed+i")
	flag.IntVar(&runs, "runs", 1, "number of sessions to generate")
	flag.StringVar(&outRoot, "out", "gameplay_data", "corpus root directory")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	flag.Parse()

	log := logger.Named("collect")
	if err := logger.SetLevelString(logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	ctx := context.Background()

	policy, err := sim.ParsePolicy(policyName)
	if err != nil {
		log.Error(ctx, "policy", logger.Error(err))
		return 1
	}
	if label == "" {
		label = string(policy)
	}
	if ticks <= 0 || runs <= 0 {
		log.Error(ctx, "-ticks and -runs must be positive")
		return 1
	}

	outDir := filepath.Join(outRoot, label)
	for i := 0; i < runs; i++ {
		s := sim.NewSim(
			sim.WithSeed(seed+int64(i)),
			sim.WithPolicy(policy),
			sim.WithLabel(label),
			sim.WithStart(time.Now()),
		)
		ran := s.RunTicks(ticks)
		s.Finish()

		rec := s.Record()
		path := filepath.Join(outDir, rec.Filename())
		if err := rec.Save(path); err != nil {
			log.Error(ctx, "save failed", logger.String("file", path), logger.Error(err))
			return 1
		}
		log.Info(ctx, "session recorded",
			logger.String("file", path),
			logger.String("policy", string(policy)),
			logger.Int("ticks", ran),
			logger.Int("shots", rec.PlayerStats.ShotsFired),
			logger.Int("kills", rec.PlayerStats.EnemiesKilled))
	}

	log.Info(ctx, "corpus generation complete",
		logger.String("dir", outDir), logger.Int("runs", runs))
	return 0
}
