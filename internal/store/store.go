package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Operation string

const (
	OperationValidate        Operation = "validate"
	OperationValidateProject Operation = "validate_project"
	OperationValidateBatch   Operation = "validate_batch"
	OperationCalculate       Operation = "calculate"
)

// Run is the audit record of one compute request. Matrices and claims are
// not stored; the summary is enough to back a cross-validation claim.
type Run struct {
	ID         uuid.UUID `json:"run_id"`
	Operation  Operation `json:"operation"`
	Engine     string    `json:"engine"`
	Matrices   int       `json:"matrices"`
	Pass       *bool     `json:"pass,omitempty"`
	MaxDelta   float64   `json:"max_delta"`
	Tolerance  float64   `json:"tolerance"`
	Errored    int       `json:"errored"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Client     string    `json:"client,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`

	// Summary holds the per-matrix verdicts keyed by matrix name.
	Summary map[string]interface{} `json:"summary,omitempty"`
}

type RunFilter struct {
	Operation *Operation
	Pass      *bool
	Since     *time.Time
	Limit     int
	Offset    int
}

const (
	DefaultRunLimit = 50
	MaxRunLimit     = 500
)

// EffectiveLimit clamps Limit to [1, MaxRunLimit], defaulting to DefaultRunLimit.
func (f RunFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultRunLimit
	case f.Limit > MaxRunLimit:
		return MaxRunLimit
	default:
		return f.Limit
	}
}

type RunStats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Rejected int     `json:"rejected"`
	AvgMs    float64 `json:"avg_duration_ms"`
}

type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	GetStats(ctx context.Context) (*RunStats, error)
	Close() error
}
