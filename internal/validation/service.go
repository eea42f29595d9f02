package validation

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
)

const (
	DefaultAgreementThreshold = 0.01
	DefaultWorkers            = 4
)

// Options tunes a Service.
type Options struct {
	Tolerance          float64
	AgreementThreshold float64
	Workers            int
	SelfCheck          bool
}

// MatrixInput is a raw matrix with its item labels.
type MatrixInput struct {
	Matrix [][]float64
	Items  []string
}

// ValidateInput is a matrix plus the caller's claimed results.
// A positive Tolerance overrides the one passed to Validate. A non-nil
// Rejected fails the entry with that error before any computation.
type ValidateInput struct {
	MatrixInput
	Claim     Claim
	Tolerance float64
	Rejected  error
}

// Agreement reports how closely the cross-check engine matched the primary one.
type Agreement struct {
	Engine        string    `json:"engine"`
	Weights       []float64 `json:"weights"`
	CR            float64   `json:"cr"`
	MaxDifference float64   `json:"max_difference"`
	Agree         bool      `json:"agree"`
}

// Calculation is the reference result for one matrix.
type Calculation struct {
	Items            []string   `json:"items"`
	ReferenceWeights []float64  `json:"reference_weights"`
	ReferenceCR      float64    `json:"reference_cr"`
	LambdaMax        float64    `json:"lambda_max"`
	CI               float64    `json:"ci"`
	RI               float64    `json:"ri"`
	Engine           string     `json:"engine"`
	Iterations       int        `json:"iterations"`
	MethodAgreement  *Agreement `json:"method_agreement,omitempty"`

	result *ahp.Result
}

// Validation is a Calculation compared against a claim.
type Validation struct {
	Calculation
	Comparison *Comparison `json:"comparison"`
}

// Service runs validator, engine and comparator for the HTTP layer.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	validator  ahp.Validator
	engine     ahp.PriorityEngine
	crossCheck ahp.PriorityEngine
	opts       Options
	available  atomic.Bool
	logger     *slog.Logger
}

// NewService wires a Service. crossCheck may be nil. The oracle starts
// available; call CheckOracle to gate it on the reference cases.
func NewService(v ahp.Validator, engine, crossCheck ahp.PriorityEngine, opts Options, logger *slog.Logger) *Service {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.AgreementThreshold <= 0 {
		opts.AgreementThreshold = DefaultAgreementThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	s := &Service{
		validator:  v,
		engine:     engine,
		crossCheck: crossCheck,
		opts:       opts,
		logger:     logger,
	}
	s.setAvailable(engine != nil)
	return s
}

// CheckOracle runs the reference cases through the primary engine when the
// self-check is enabled and marks the oracle unavailable on failure.
func (s *Service) CheckOracle() error {
	if s.engine == nil {
		s.setAvailable(false)
		return ahp.NewError(ahp.KindServiceUnavailable, "no priority engine configured")
	}
	if !s.opts.SelfCheck {
		s.setAvailable(true)
		return nil
	}
	if err := ahp.SelfCheck(s.engine, s.validator); err != nil {
		s.setAvailable(false)
		s.logger.Warn("oracle self-check failed", "engine", s.engine.Name(), "error", err)
		return err
	}
	s.setAvailable(true)
	s.logger.Info("oracle self-check passed", "engine", s.engine.Name(), "cases", len(ahp.ReferenceCases()))
	return nil
}

func (s *Service) setAvailable(ok bool) {
	s.available.Store(ok)
	if ok {
		oracleAvailable.Set(1)
	} else {
		oracleAvailable.Set(0)
	}
}

// Available reports whether compute operations are accepted.
func (s *Service) Available() bool {
	return s.available.Load()
}

// EngineName returns the primary engine's name, or "" when none is set.
func (s *Service) EngineName() string {
	if s.engine == nil {
		return ""
	}
	return s.engine.Name()
}

// Tolerance resolves a per-request override against the configured default.
func (s *Service) Tolerance(override float64) float64 {
	if override > 0 {
		return override
	}
	return s.opts.Tolerance
}

func (s *Service) unavailable() error {
	return ahp.NewError(ahp.KindServiceUnavailable, "reference engine is not available")
}

// Calculate validates the matrix and computes reference priorities.
func (s *Service) Calculate(in MatrixInput) (*Calculation, error) {
	calc, err := s.calculate(in)
	if err != nil {
		s.recordError("calculate", err)
		return nil, err
	}
	validationsTotal.WithLabelValues("calculate", outcomePass).Inc()
	return calc, nil
}

func (s *Service) calculate(in MatrixInput) (*Calculation, error) {
	if !s.Available() {
		return nil, s.unavailable()
	}
	m, err := s.validator.Validate(in.Matrix, in.Items)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.ComputePriorities(m)
	if err != nil {
		return nil, err
	}
	engineIterations.WithLabelValues(res.Engine).Observe(float64(res.Iterations))

	calc := &Calculation{
		Items:            m.Items,
		ReferenceWeights: res.Weights,
		ReferenceCR:      res.CR,
		LambdaMax:        res.LambdaMax,
		CI:               res.CI,
		RI:               res.RI,
		Engine:           res.Engine,
		Iterations:       res.Iterations,
		result:           res,
	}
	if s.crossCheck != nil {
		calc.MethodAgreement = s.agreement(m, res)
	}
	return calc, nil
}

// agreement never fails the calculation; a cross-check error is logged and dropped.
func (s *Service) agreement(m *ahp.Matrix, primary *ahp.Result) *Agreement {
	other, err := s.crossCheck.ComputePriorities(m)
	if err != nil {
		s.logger.Debug("cross-check engine failed", "engine", s.crossCheck.Name(), "error", err)
		return nil
	}
	var maxDiff float64
	for i := range primary.Weights {
		maxDiff = math.Max(maxDiff, math.Abs(primary.Weights[i]-other.Weights[i]))
	}
	return &Agreement{
		Engine:        other.Engine,
		Weights:       other.Weights,
		CR:            other.CR,
		MaxDifference: maxDiff,
		Agree:         maxDiff < s.opts.AgreementThreshold,
	}
}

// Validate computes the reference result and compares it against the claim.
// tolerance overrides the configured default when positive.
func (s *Service) Validate(in ValidateInput, tolerance float64) (*Validation, error) {
	v, err := s.validate(in, tolerance)
	if err != nil {
		s.recordError("validate", err)
		return nil, err
	}
	s.recordOutcome("validate", v)
	return v, nil
}

func (s *Service) validate(in ValidateInput, tolerance float64) (*Validation, error) {
	if in.Rejected != nil {
		return nil, in.Rejected
	}
	if in.Tolerance > 0 {
		tolerance = in.Tolerance
	}
	calc, err := s.calculate(in.MatrixInput)
	if err != nil {
		return nil, err
	}
	cmp, err := NewComparator(s.Tolerance(tolerance)).Compare(calc.result, calc.Items, in.Claim)
	if err != nil {
		return nil, err
	}
	return &Validation{Calculation: *calc, Comparison: cmp}, nil
}

func (s *Service) recordError(op string, err error) {
	validationsTotal.WithLabelValues(op, outcomeError).Inc()
	kind := ahp.KindOf(err)
	if kind == "" {
		kind = "Internal"
	}
	errorsTotal.WithLabelValues(string(kind)).Inc()
}

func (s *Service) recordOutcome(op string, v *Validation) {
	maxDeltaObserved.Observe(v.Comparison.MaxDelta)
	outcome := outcomeFail
	if v.Comparison.Pass {
		outcome = outcomePass
	}
	validationsTotal.WithLabelValues(op, outcome).Inc()
}
