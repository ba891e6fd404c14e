package pep

import (
	"context"
	"errors"
	"fmt"

	"github.com/agatinet31/pep-parser/internal/dom"
	"github.com/agatinet31/pep-parser/internal/logger"
)

// OutcomeKind classifies how one index row was handled.
type OutcomeKind int

const (
	Tallied OutcomeKind = iota
	SkippedFetch
	SkippedExtraction
	SkippedStatusKey
	SkippedStatusName
)

func (k OutcomeKind) String() string {
	switch k {
	case Tallied:
		return "tallied"
	case SkippedFetch:
		return "fetch_error"
	case SkippedExtraction:
		return "extraction_error"
	case SkippedStatusKey:
		return "status_key_error"
	case SkippedStatusName:
		return "status_name_error"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the result of reconciling one index row. Err is set for every
// kind except Tallied. Mismatch is set whenever a resolved status is not among
// the names expected for the index code.
type Outcome struct {
	Row      int
	Item     ItemRecord
	Kind     OutcomeKind
	Status   string   // authoritative status, when resolved
	Expected []string // names acceptable for the index code, when known
	Mismatch bool
	Err      error
}

// Result is a report together with the per-row outcomes in index order.
type Result struct {
	Report   *Report
	Outcomes []Outcome
}

// Engine cross-checks index status codes against detail-page statuses and
// tallies the PEPs whose status is valid.
type Engine struct {
	taxonomy *Taxonomy
	resolver Resolver
	log      *logger.Logger
	metrics  *logger.Metrics
}

// NewEngine creates an engine. log and metrics may be nil to use the
// package defaults.
func NewEngine(taxonomy *Taxonomy, resolver Resolver, log *logger.Logger, metrics *logger.Metrics) *Engine {
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = logger.DefaultMetrics()
	}
	return &Engine{taxonomy: taxonomy, resolver: resolver, log: log, metrics: metrics}
}

// Run reconciles every PEP in the index document and returns the report.
func (e *Engine) Run(ctx context.Context, index *dom.Document) (*Report, error) {
	res, err := e.Reconcile(ctx, index)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// Reconcile is Run that also returns the per-row outcomes. Only an unusable
// index or a cancelled context fails; per-row problems are logged and skipped.
func (e *Engine) Reconcile(ctx context.Context, index *dom.Document) (*Result, error) {
	entries, err := ExtractItems(index)
	if err != nil {
		return nil, err
	}
	e.metrics.SetGauge("pep.index_rows", float64(len(entries)))

	tally := make(Tally)
	outcomes := make([]Outcome, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reconciliation interrupted: %w", err)
		}

		out := e.process(ctx, entry)
		e.record(out)
		if out.Kind == Tallied {
			tally[out.Status]++
		}
		outcomes = append(outcomes, out)
	}

	return &Result{Report: Assemble(tally), Outcomes: outcomes}, nil
}

// process decides the outcome for one row without touching the tally.
func (e *Engine) process(ctx context.Context, entry IndexEntry) Outcome {
	out := Outcome{Row: entry.Row, Item: entry.Item}
	if entry.Err != nil {
		out.Kind = SkippedExtraction
		out.Err = entry.Err
		return out
	}
	item := entry.Item

	expected, ok := e.taxonomy.ExpectedNames(item.StatusCode)
	if !ok {
		out.Kind = SkippedStatusKey
		out.Err = &StatusKeyError{ItemID: item.ID, Code: item.StatusCode}
		return out
	}
	out.Expected = expected

	status, err := e.resolver.ResolveStatus(ctx, item.DetailURL)
	if err != nil {
		out.Kind = classify(err)
		out.Err = fmt.Errorf("PEP %s: %w", item.ID, err)
		return out
	}
	out.Status = status
	out.Mismatch = !contains(expected, status)

	if !e.taxonomy.IsValidName(status) {
		out.Kind = SkippedStatusName
		out.Err = &StatusNameError{ItemID: item.ID, Name: status}
		return out
	}

	out.Kind = Tallied
	return out
}

func classify(err error) OutcomeKind {
	var extractErr *dom.ExtractionError
	if errors.As(err, &extractErr) {
		return SkippedExtraction
	}
	return SkippedFetch
}

// record logs the outcome and updates counters.
func (e *Engine) record(out Outcome) {
	e.metrics.IncrCounter("pep.items")
	fields := logger.Fields{
		"row":        out.Row,
		"pep":        out.Item.ID,
		"url":        out.Item.DetailURL,
		"index_code": out.Item.StatusCode,
	}

	if out.Mismatch {
		e.metrics.IncrCounter("pep.mismatch")
		e.log.Info("Status mismatch", logger.Fields{
			"row":      out.Row,
			"pep":      out.Item.ID,
			"url":      out.Item.DetailURL,
			"status":   out.Status,
			"expected": out.Expected,
		})
	}

	switch out.Kind {
	case Tallied:
		e.metrics.IncrCounter("pep.tallied")
		e.log.Debug("PEP tallied", logger.Fields{"pep": out.Item.ID, "status": out.Status})
	case SkippedStatusKey:
		e.metrics.IncrCounter("pep.skipped.status_key")
		e.log.Warn("Unknown status code", withErr(fields, out.Err))
	case SkippedStatusName:
		e.metrics.IncrCounter("pep.skipped.status_name")
		fields["status"] = out.Status
		e.log.Warn("Invalid status name", withErr(fields, out.Err))
	case SkippedFetch:
		e.metrics.IncrCounter("pep.skipped.fetch")
		e.log.Error("Detail page fetch failed", fields, out.Err)
	case SkippedExtraction:
		e.metrics.IncrCounter("pep.skipped.extraction")
		e.log.Error("Required element missing", fields, out.Err)
	}
}

func withErr(fields logger.Fields, err error) logger.Fields {
	fields["error"] = err.Error()
	return fields
}
