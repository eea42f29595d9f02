package validation

import (
	"context"
	"errors"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
)

// ErrNoMatrices rejects an empty project or batch.
var ErrNoMatrices = errors.New("no matrices provided")

// EntryResult is either a full Validation or the error that stopped it.
type EntryResult struct {
	*Validation
	ErrorKind ahp.ErrorKind `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Failed reports whether the entry carries an error instead of a report.
func (r EntryResult) Failed() bool {
	return r.Validation == nil
}

// Aggregate summarises a set of entries.
type Aggregate struct {
	Pass      bool    `json:"pass"`
	MaxDelta  float64 `json:"max_delta"`
	MeanDelta float64 `json:"mean_delta"`
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Errored   int     `json:"errored"`
}

// ProjectReport is keyed by matrix name.
type ProjectReport struct {
	Results   map[string]EntryResult `json:"results"`
	Aggregate Aggregate              `json:"aggregate"`
}

// NamedInput is one element of an ordered batch.
type NamedInput struct {
	Name string
	ValidateInput
}

// BatchEntry keeps the request order and name of a batch element.
type BatchEntry struct {
	Name string `json:"name"`
	EntryResult
}

// BatchReport preserves request order.
type BatchReport struct {
	Results   []BatchEntry `json:"results"`
	Aggregate Aggregate    `json:"aggregate"`
}

// ValidateProject validates every named matrix. A failing entry records its
// error and never stops its siblings; only cancellation or an unavailable
// oracle fail the whole project.
func (s *Service) ValidateProject(ctx context.Context, entries map[string]ValidateInput, tolerance float64) (*ProjectReport, error) {
	if len(entries) == 0 {
		return nil, ErrNoMatrices
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make([]ValidateInput, len(names))
	for i, name := range names {
		inputs[i] = entries[name]
	}
	results, err := s.runEntries(ctx, "validate_project", inputs, tolerance)
	if err != nil {
		return nil, err
	}

	report := &ProjectReport{Results: make(map[string]EntryResult, len(names))}
	for i, name := range names {
		report.Results[name] = results[i]
	}
	report.Aggregate = aggregate(results)
	s.logger.Debug("project validated", "entries", len(names), "pass", report.Aggregate.Pass)
	return report, nil
}

// ValidateBatch is the ordered-list form of ValidateProject.
func (s *Service) ValidateBatch(ctx context.Context, entries []NamedInput, tolerance float64) (*BatchReport, error) {
	if len(entries) == 0 {
		return nil, ErrNoMatrices
	}
	inputs := make([]ValidateInput, len(entries))
	for i, e := range entries {
		inputs[i] = e.ValidateInput
	}
	results, err := s.runEntries(ctx, "validate_batch", inputs, tolerance)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Results: make([]BatchEntry, len(entries))}
	for i, e := range entries {
		report.Results[i] = BatchEntry{Name: e.Name, EntryResult: results[i]}
	}
	report.Aggregate = aggregate(results)
	return report, nil
}

func (s *Service) runEntries(ctx context.Context, op string, inputs []ValidateInput, tolerance float64) ([]EntryResult, error) {
	if !s.Available() {
		err := s.unavailable()
		s.recordError(op, err)
		return nil, err
	}

	results := make([]EntryResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := s.validate(inputs[i], tolerance)
			if err != nil {
				s.recordError(op, err)
				results[i] = errorEntry(err)
				return nil
			}
			s.recordOutcome(op, v)
			results[i] = EntryResult{Validation: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func errorEntry(err error) EntryResult {
	kind := ahp.KindOf(err)
	msg := err.Error()
	var e *ahp.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	if kind == "" {
		kind = "Internal"
	}
	return EntryResult{ErrorKind: kind, Message: msg}
}

func aggregate(results []EntryResult) Aggregate {
	agg := Aggregate{Total: len(results)}
	var deltas []float64
	for _, r := range results {
		switch {
		case r.Failed():
			agg.Errored++
		case r.Comparison.Pass:
			agg.Passed++
			deltas = append(deltas, r.Comparison.MaxDelta)
		default:
			agg.Failed++
			deltas = append(deltas, r.Comparison.MaxDelta)
		}
	}
	agg.Pass = agg.Total > 0 && agg.Passed == agg.Total

	if len(deltas) > 0 {
		agg.MaxDelta, _ = stats.Max(deltas)
		agg.MeanDelta, _ = stats.Mean(deltas)
	}
	return agg
}
