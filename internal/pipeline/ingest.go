package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/normalize"
	"go-sheet-pipeline/internal/resolve"
	"go-sheet-pipeline/internal/tabular"
)

// ------------------- Ingestion -------------------

// IngestOptions is the request-wide context a single source is read in.
type IngestOptions struct {
	AllowedPeriods map[string]bool
	// DateRange applies when the source hints carry none.
	DateRange *model.DateRange
}

// IngestResult is everything one source yielded. Err is nil on success; a
// HeaderNotFoundError still comes with (degraded) records.
type IngestResult struct {
	Source   model.Source
	Records  []model.NormalizedRecord
	Columns  model.ColumnRoleMap
	Table    model.RawTable
	Report   tabular.Report
	Cached   bool
	Duration time.Duration
	Err      *model.IngestError
}

// SourceReport summarizes the result for API and run-log consumers.
func (r IngestResult) SourceReport() model.SourceReport {
	rep := model.SourceReport{
		Tag:             r.Source.Tag,
		URL:             r.Source.URL,
		ResolvedColumns: r.Columns,
		RecordCount:     len(r.Records),
		HeaderRowIndex:  r.Table.HeaderRowIndex,
		Cached:          r.Cached,
		Duration:        r.Duration,
	}
	if r.Report.Delimiter != 0 {
		rep.Delimiter = string(r.Report.Delimiter)
	}
	if r.Err != nil {
		f := r.Err.Failure()
		rep.Error = &f
	}
	return rep
}

// parsed is the cacheable half of an ingestion: fetched, decoded and split.
type parsed struct {
	Table  model.RawTable
	Report tabular.Report
}

// Ingest reads one source end to end: fetch, decode, parse, resolve, normalize.
func Ingest(ctx context.Context, f Fetcher, src model.Source, opts IngestOptions) IngestResult {
	start := time.Now()
	p, ierr := load(ctx, f, src)
	if ierr != nil {
		return IngestResult{Source: src, Err: ierr, Duration: time.Since(start)}
	}
	res := finish(p, src, opts)
	res.Duration = time.Since(start)
	return res
}

// load fetches and parses a source. A missing header is not an error here;
// finish reports it.
func load(ctx context.Context, f Fetcher, src model.Source) (parsed, *model.IngestError) {
	fail := func(kind model.ErrorKind, err error) (parsed, *model.IngestError) {
		return parsed{}, &model.IngestError{Kind: kind, Tag: src.Tag, URL: src.URL, Err: err}
	}
	rules, err := tabular.RulesFromHints(src.Hints)
	if err != nil {
		return fail(model.KindDecode, fmt.Errorf("%w: hints: %w", model.ErrDecode, err))
	}

	slog.Debug("➡️ fetching source", "source", src.Tag, "url", src.URL)
	blob, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return fail(model.KindFetch, fmt.Errorf("%w: %w", model.ErrFetch, err))
	}
	doc, err := tabular.Decode(blob, src.Hints.Sheet)
	if err != nil {
		return fail(model.KindDecode, err)
	}
	table, rep := tabular.ParseDocument(doc, rules)
	slog.Debug("📄 parsed source", "source", src.Tag, "format", doc.Format, "rows", len(table.Rows),
		"header_row", table.HeaderRowIndex, "score", rep.Score)
	return parsed{Table: table, Report: rep}, nil
}

func finish(p parsed, src model.Source, opts IngestOptions) IngestResult {
	dr := src.Hints.DateRange
	if dr == nil {
		dr = opts.DateRange
	}
	roles := resolve.Resolve(p.Table, src.Hints, src.PeriodID)
	records := normalize.Normalize(p.Table, roles, normalize.Options{
		SourceTag:      src.Tag,
		PeriodID:       src.PeriodID,
		AllowedPeriods: opts.AllowedPeriods,
		DateRange:      dr,
	})
	res := IngestResult{Source: src, Records: records, Columns: roles, Table: p.Table, Report: p.Report}
	if !p.Report.Found {
		res.Err = &model.IngestError{
			Kind: model.KindHeaderNotFound, Tag: src.Tag, URL: src.URL,
			Err: fmt.Errorf("%w: no line scored positively, using the first line", model.ErrHeaderNotFound),
		}
	}
	return res
}
