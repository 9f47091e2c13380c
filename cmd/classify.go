package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/config"
	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/pipeline"
	"github.com/sells-group/riskzones-cli/internal/placement"
	"github.com/sells-group/riskzones-cli/internal/snapshot"
)

var (
	classifyWorkers    int
	classifyAlgorithm  string
	classifyNoSnapshot bool
	classifyFormat     string
	classifyMaxRounds  int
)

var classifyCmd = &cobra.Command{
	Use:   "classify <run-config>",
	Short: "Classify an AoI and place EDUs",
	Long:  "Reads a run config (JSON or YAML), classifies the zones of its AoI into risk levels and positions the EDU budget with the configured algorithm.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		run, err := config.LoadRun(args[0])
		if err != nil {
			return err
		}
		applyClassifyFlags(cmd, run)
		if err := run.Validate(); err != nil {
			return err
		}

		res, err := classify(ctx, run)
		if eris.Is(err, grid.ErrSnapshotCorrupted) {
			zap.L().Error("snapshot is corrupted, delete it and run again",
				zap.String("command", "riskzones snapshot delete "+args[0]),
				zap.Error(err),
			)
		}
		if err != nil {
			return err
		}

		if err := pipeline.WriteOutputs(res, run, cfg.Output.Format); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Metrics)
	},
}

// applyClassifyFlags lets explicit flags override the app and run configs.
func applyClassifyFlags(cmd *cobra.Command, run *config.RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Engine.Workers = classifyWorkers
	}
	if flags.Changed("max-rounds") {
		cfg.Engine.MaxRounds = classifyMaxRounds
	}
	if flags.Changed("format") {
		cfg.Output.Format = classifyFormat
	}
	if flags.Changed("algorithm") {
		run.EDUAlg = classifyAlgorithm
	}
	if classifyNoSnapshot {
		run.CacheZones = false
	}
}

func classify(ctx context.Context, run *config.RunConfig) (*pipeline.Result, error) {
	weights, err := run.Weights()
	if err != nil {
		return nil, err
	}
	alg, err := run.Algorithm()
	if err != nil {
		return nil, err
	}
	placer, err := placement.New(alg, placement.WithMaxRounds(cfg.Engine.MaxRounds))
	if err != nil {
		return nil, err
	}

	var store snapshot.Store
	if run.CacheZones {
		store, err = openStore(ctx, run.Path)
		if err != nil {
			return nil, err
		}
		defer store.Close() //nolint:errcheck
	}

	source := pipeline.OSMSource{Path: run.PoIs, Weights: weights}
	return pipeline.New(cfg, run, source, store, placer).Run(ctx)
}

func openStore(ctx context.Context, runPath string) (snapshot.Store, error) {
	return snapshot.Open(ctx, cfg.Snapshot.Driver, cfg.Snapshot.SQLitePath, runPath)
}

func init() {
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", 0, "parallel workers for filtering and classification (0 = all CPUs)")
	classifyCmd.Flags().StringVar(&classifyAlgorithm, "algorithm", "", "override edu_alg (random, balanced, enhanced, restricted)")
	classifyCmd.Flags().BoolVar(&classifyNoSnapshot, "no-snapshot", false, "ignore cache_zones and always classify")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "csv", "output format (csv, xlsx)")
	classifyCmd.Flags().IntVar(&classifyMaxRounds, "max-rounds", 0, "cap restricted placement rounds (0 = unlimited)")
	rootCmd.AddCommand(classifyCmd)
}
