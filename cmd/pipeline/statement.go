package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
	"go-sheet-pipeline/internal/statement"
	"go-sheet-pipeline/internal/tabular"
)

type statementOptions struct {
	month       string
	mode        string
	n           int
	sheet       string
	titleColumn int
	compare     string
}

type statementReport struct {
	Month    string                `json:"month"`
	Mode     aggregate.RankMode    `json:"mode"`
	Months   []string              `json:"months"`
	Ranked   []model.RankedItem    `json:"ranked"`
	Variance []model.VarianceEntry `json:"variance,omitempty"`
}

func newStatementCmd(g *globalOptions) *cobra.Command {
	var opts statementOptions

	cmd := &cobra.Command{
		Use:   "statement <url|path>",
		Short: "Rank the expense lines of an income statement for one month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := aggregate.RankMode(strings.ToLower(opts.mode))
			if mode != aggregate.RankAggregated && mode != aggregate.RankDetailed {
				return fmt.Errorf("--mode must be %s or %s", aggregate.RankAggregated, aggregate.RankDetailed)
			}
			f, _, err := g.fetcher()
			if err != nil {
				return err
			}
			st, err := loadStatement(cmd, f, args[0], opts)
			if err != nil {
				return err
			}
			rep := statementReport{
				Month:  opts.month,
				Mode:   mode,
				Months: st.Months,
				Ranked: st.Rank(opts.month, aggregate.RankOptions{Mode: mode, N: opts.n}),
			}
			if opts.compare != "" {
				base, err := loadStatement(cmd, f, opts.compare, opts)
				if err != nil {
					return fmt.Errorf("baseline: %w", err)
				}
				rep.Variance = st.Compare(base, opts.month)
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&opts.month, "month", "", "Month key, e.g. ago (required)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(aggregate.RankAggregated), "Ranking mode: aggregated or detailed")
	cmd.Flags().IntVar(&opts.n, "n", 0, "Number of lines to keep (default 5)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Workbook sheet name")
	cmd.Flags().IntVar(&opts.titleColumn, "title-column", 0, "Zero-based column holding line titles (default 1)")
	cmd.Flags().StringVar(&opts.compare, "compare", "", "Baseline statement to compute variances against")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func loadStatement(cmd *cobra.Command, f pipeline.Fetcher, url string, opts statementOptions) (*statement.Statement, error) {
	blob, err := f.Fetch(cmd.Context(), url)
	if err != nil {
		return nil, err
	}
	doc, err := tabular.Decode(blob, opts.sheet)
	if err != nil {
		return nil, err
	}
	cells := doc.Cells
	if cells == nil {
		cells = tabular.ReadRows(doc.Text, tabular.DetectDelimiter(doc.Text))
	}
	return statement.Parse(cells, statement.Options{
		TitleColumn:        opts.titleColumn,
		TitleInFirstColumn: opts.titleColumn == 0 && cmd.Flags().Changed("title-column"),
	})
}
