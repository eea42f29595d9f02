package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
	"github.com/MikeSquared-Agency/Crosscheck/internal/events"
	"github.com/MikeSquared-Agency/Crosscheck/internal/store"
	"github.com/MikeSquared-Agency/Crosscheck/internal/validation"
)

// maxBodyBytes bounds a request body; a 15×15 project of a few hundred
// matrices fits well inside it.
const maxBodyBytes = 8 << 20

type ValidateHandler struct {
	svc       *validation.Service
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
}

// NewValidateHandler wires the compute endpoints. s and p may be nil.
func NewValidateHandler(svc *validation.Service, s store.Store, p events.Publisher, logger *slog.Logger) *ValidateHandler {
	return &ValidateHandler{svc: svc, store: s, publisher: p, logger: logger}
}

type CalculateRequest struct {
	Matrix [][]float64 `json:"matrix"`
	Items  []string    `json:"items"`
}

// ValidateRequest is one matrix and its claim. Inside a project or batch,
// a positive Tolerance overrides the request-level one for that entry.
type ValidateRequest struct {
	Matrix      [][]float64 `json:"matrix"`
	Items       []string    `json:"items"`
	YourWeights []float64   `json:"your_weights"`
	YourCR      *float64    `json:"your_cr"`
	YourLambda  *float64    `json:"your_lambda,omitempty"`
	Tolerance   float64     `json:"tolerance,omitempty"`
}

// problem describes the first missing or malformed field, or "" when the
// request is complete.
func (r ValidateRequest) problem() string {
	switch {
	case r.Matrix == nil:
		return "matrix is required"
	case r.Items == nil:
		return "items is required"
	case r.YourWeights == nil:
		return "your_weights is required"
	case r.YourCR == nil:
		return "your_cr is required"
	case r.Tolerance < 0:
		return fmt.Sprintf("tolerance must be positive, got %g", r.Tolerance)
	}
	return ""
}

// input converts the request; an incomplete request becomes a rejected
// input so that project and batch entries fail on their own.
func (r ValidateRequest) input() validation.ValidateInput {
	in := validation.ValidateInput{
		MatrixInput: validation.MatrixInput{Matrix: r.Matrix, Items: r.Items},
		Claim: validation.Claim{
			Weights:   r.YourWeights,
			LambdaMax: r.YourLambda,
		},
		Tolerance: r.Tolerance,
	}
	if r.YourCR != nil {
		in.Claim.CR = *r.YourCR
	}
	if p := r.problem(); p != "" {
		in.Rejected = ahp.NewError(ahp.KindBadRequest, "%s", p)
	}
	return in
}

// validTolerance rejects a negative request-level tolerance; 0 means the
// configured default.
func validTolerance(w http.ResponseWriter, tol float64) bool {
	if tol < 0 {
		writeError(w, http.StatusBadRequest, ahp.KindBadRequest, fmt.Sprintf("tolerance must be positive, got %g", tol))
		return false
	}
	return true
}

type ValidateProjectRequest struct {
	Matrices  map[string]ValidateRequest `json:"matrices"`
	Tolerance float64                    `json:"tolerance,omitempty"`
}

type BatchMatrix struct {
	Name string `json:"name"`
	ValidateRequest
}

type ValidateBatchRequest struct {
	Matrices  []BatchMatrix `json:"matrices"`
	Tolerance float64       `json:"tolerance,omitempty"`
}

type CalculateResponse struct {
	*validation.Calculation
	RunID string `json:"run_id"`
}

type ValidateResponse struct {
	*validation.Validation
	RunID string `json:"run_id"`
}

type ProjectResponse struct {
	*validation.ProjectReport
	RunID string `json:"run_id"`
}

type BatchResponse struct {
	*validation.BatchReport
	RunID string `json:"run_id"`
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ahp.KindBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *ValidateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CalculateRequest
	if !decode(w, r, &req) {
		return
	}

	run := h.newRun(r, store.OperationCalculate, 1, 0)
	calc, err := h.svc.Calculate(validation.MatrixInput{Matrix: req.Matrix, Items: req.Items})
	if err != nil {
		h.finishFailed(r.Context(), run, start, err)
		writeServiceError(w, err)
		return
	}
	h.finish(r.Context(), run, start)
	writeJSON(w, http.StatusOK, CalculateResponse{Calculation: calc, RunID: run.ID.String()})
}

func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ValidateRequest
	if !decode(w, r, &req) {
		return
	}
	if p := req.problem(); p != "" {
		writeError(w, http.StatusBadRequest, ahp.KindBadRequest, p)
		return
	}

	tol := h.svc.Tolerance(req.Tolerance)
	run := h.newRun(r, store.OperationValidate, 1, tol)
	v, err := h.svc.Validate(req.input(), req.Tolerance)
	if err != nil {
		h.finishFailed(r.Context(), run, start, err)
		writeServiceError(w, err)
		return
	}

	pass := v.Comparison.Pass
	run.Pass = &pass
	run.MaxDelta = v.Comparison.MaxDelta
	h.finish(r.Context(), run, start)
	writeJSON(w, http.StatusOK, ValidateResponse{Validation: v, RunID: run.ID.String()})
}

func (h *ValidateHandler) ValidateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ValidateProjectRequest
	if !decode(w, r, &req) || !validTolerance(w, req.Tolerance) {
		return
	}

	entries := make(map[string]validation.ValidateInput, len(req.Matrices))
	for name, m := range req.Matrices {
		entries[name] = m.input()
	}

	tol := h.svc.Tolerance(req.Tolerance)
	run := h.newRun(r, store.OperationValidateProject, len(entries), tol)
	report, err := h.svc.ValidateProject(r.Context(), entries, req.Tolerance)
	if err != nil {
		h.finishFailed(r.Context(), run, start, err)
		writeServiceError(w, err)
		return
	}

	summary := make(map[string]interface{}, len(report.Results))
	for name, res := range report.Results {
		summary[name] = entrySummary(res)
	}
	h.applyAggregate(run, report.Aggregate, summary)
	h.finish(r.Context(), run, start)
	writeJSON(w, http.StatusOK, ProjectResponse{ProjectReport: report, RunID: run.ID.String()})
}

func (h *ValidateHandler) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ValidateBatchRequest
	if !decode(w, r, &req) || !validTolerance(w, req.Tolerance) {
		return
	}

	entries := make([]validation.NamedInput, len(req.Matrices))
	for i, m := range req.Matrices {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("matrix_%d", i)
		}
		entries[i] = validation.NamedInput{Name: name, ValidateInput: m.input()}
	}

	tol := h.svc.Tolerance(req.Tolerance)
	run := h.newRun(r, store.OperationValidateBatch, len(entries), tol)
	report, err := h.svc.ValidateBatch(r.Context(), entries, req.Tolerance)
	if err != nil {
		h.finishFailed(r.Context(), run, start, err)
		writeServiceError(w, err)
		return
	}

	summary := make(map[string]interface{}, len(report.Results))
	for _, res := range report.Results {
		summary[res.Name] = entrySummary(res.EntryResult)
	}
	h.applyAggregate(run, report.Aggregate, summary)
	h.finish(r.Context(), run, start)
	writeJSON(w, http.StatusOK, BatchResponse{BatchReport: report, RunID: run.ID.String()})
}

type referenceCasesResponse struct {
	Engine string              `json:"engine"`
	Cases  []ahp.ReferenceCase `json:"cases"`
}

func (h *ValidateHandler) ReferenceCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, referenceCasesResponse{
		Engine: h.svc.EngineName(),
		Cases:  ahp.ReferenceCases(),
	})
}

// entrySummary is the per-matrix verdict kept in the audit log.
func entrySummary(res validation.EntryResult) string {
	switch {
	case res.Failed():
		return string(res.ErrorKind)
	case res.Comparison.Pass:
		return "pass"
	default:
		return "fail"
	}
}

func (h *ValidateHandler) newRun(r *http.Request, op store.Operation, matrices int, tol float64) *store.Run {
	return &store.Run{
		ID:        uuid.New(),
		Operation: op,
		Engine:    h.svc.EngineName(),
		Matrices:  matrices,
		Tolerance: tol,
		Client:    clientID(r),
	}
}

func (h *ValidateHandler) applyAggregate(run *store.Run, agg validation.Aggregate, summary map[string]interface{}) {
	pass := agg.Pass
	run.Pass = &pass
	run.MaxDelta = agg.MaxDelta
	run.Errored = agg.Errored
	run.Summary = summary
}

func (h *ValidateHandler) finishFailed(ctx context.Context, run *store.Run, start time.Time, err error) {
	kind := ahp.KindOf(err)
	if kind == "" {
		kind = ahp.KindBadRequest
	}
	run.ErrorKind = string(kind)
	run.DurationMs = time.Since(start).Milliseconds()
	h.recordRun(ctx, run)
	h.publish(events.SubjectRunFailed(run.ID.String()), events.RunFailedEvent{
		RunID:     run.ID.String(),
		Operation: string(run.Operation),
		ErrorKind: run.ErrorKind,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *ValidateHandler) finish(ctx context.Context, run *store.Run, start time.Time) {
	run.DurationMs = time.Since(start).Milliseconds()
	h.recordRun(ctx, run)
	h.publish(events.SubjectRunCompleted(run.ID.String()), events.RunCompletedEvent{
		RunID:     run.ID.String(),
		Operation: string(run.Operation),
		Engine:    run.Engine,
		Matrices:  run.Matrices,
		Pass:      run.Pass,
		MaxDelta:  run.MaxDelta,
		Errored:   run.Errored,
		Timestamp: time.Now().UTC(),
	})
}

// recordRun and publish never fail the request.
func (h *ValidateHandler) recordRun(ctx context.Context, run *store.Run) {
	if h.store == nil {
		return
	}
	if err := h.store.RecordRun(ctx, run); err != nil {
		h.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
	}
}

func (h *ValidateHandler) publish(subject string, event interface{}) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(subject, event); err != nil {
		h.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
