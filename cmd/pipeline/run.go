package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-sheet-pipeline/internal/config"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
)

type runOptions struct {
	view            string
	outDir          string
	formats         []string
	topN            int
	dedup           bool
	transformations []string
}

type runReport struct {
	RunID    string                `json:"runId"`
	View     string                `json:"view"`
	Summary  model.RunSummary      `json:"summary"`
	Failures []model.SourceFailure `json:"failures"`
	Output   string                `json:"output,omitempty"`
}

func newRunCmd(g *globalOptions) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a configured view once, aggregate it and export the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return errors.New("--config is required for run")
			}
			f, cfg, err := g.fetcher()
			if err != nil {
				return err
			}
			return runView(cmd, f, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.view, "view", "", "View name from the config (required)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Output directory (default: config output_dir)")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{pipeline.FormatJSON}, "Export formats: json, csv, xlsx")
	cmd.Flags().IntVar(&opts.topN, "top-n", 0, "Top-N size (default: the view's)")
	cmd.Flags().BoolVar(&opts.dedup, "dedup", false, "Drop duplicate records across sources")
	cmd.Flags().StringSliceVar(&opts.transformations, "transform", nil, "Transformations, e.g. window:6,drop-placeholder")
	_ = cmd.MarkFlagRequired("view")
	return cmd
}

func runView(cmd *cobra.Command, f pipeline.Fetcher, cfg *config.Config, opts runOptions) error {
	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	orch := pipeline.NewOrchestrator(f, pipeline.WithWorkers(cfg.Fetch.Workers))
	runner := pipeline.NewRunner(orch, nil, cfg, pipeline.NewResults(1), nil, outDir)

	runID := uuid.NewString()
	spec := model.RunSpec{
		View:            opts.view,
		TopN:            opts.topN,
		Dedup:           opts.dedup,
		Transformations: opts.transformations,
		Export:          &model.Export{Formats: opts.formats},
	}
	if err := runner.Run(cmd.Context(), runID, spec); err != nil {
		return err
	}
	res, ok := runner.Results().Get(runID)
	if !ok {
		return fmt.Errorf("run %s produced no result", runID)
	}
	return printJSON(cmd.OutOrStdout(), runReport{
		RunID:    runID,
		View:     opts.view,
		Summary:  res.Summary(),
		Failures: res.Failures,
		Output:   filepath.Join(outDir, runID),
	})
}
