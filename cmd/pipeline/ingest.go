package main

import (
	"github.com/spf13/cobra"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
)

type ingestOptions struct {
	preset  string
	period  string
	tag     string
	sheet   string
	records bool
}

type ingestReport struct {
	Source  model.SourceReport       `json:"source"`
	Headers []string                 `json:"headers"`
	Records []model.NormalizedRecord `json:"records,omitempty"`
}

func newIngestCmd(g *globalOptions) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <url|path>",
		Short: "Read one source and print its resolved columns and records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hints, err := presetHints(opts.preset)
			if err != nil {
				return err
			}
			if opts.sheet != "" {
				hints.Sheet = opts.sheet
			}
			f, _, err := g.fetcher()
			if err != nil {
				return err
			}
			tag := opts.tag
			if tag == "" {
				tag = opts.period
			}
			src := model.Source{Tag: tag, URL: args[0], PeriodID: opts.period, Hints: hints}
			res := pipeline.Ingest(cmd.Context(), f, src, pipeline.IngestOptions{})
			rep := ingestReport{Source: res.SourceReport(), Headers: res.Table.Headers}
			if opts.records {
				rep.Records = res.Records
			}
			if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if res.Err.Fatal() {
				return res.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Hint preset, e.g. product-cost")
	cmd.Flags().StringVar(&opts.period, "period", "", "Period ID the source covers, e.g. 2025-08")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "Source tag (default: the period)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Workbook sheet name")
	cmd.Flags().BoolVar(&opts.records, "records", true, "Print the normalized records")
	return cmd
}
