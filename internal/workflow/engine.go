package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ai"
	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/intent"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/payroll"
	"github.com/spigell/hr-assistant/internal/permission"
)

// CandidateSearcher is the part of the candidate index the workflow needs.
type CandidateSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]ats.Result, error)
	ListCandidates(ctx context.Context) ([]hr.Candidate, error)
}

// Payroll is the part of the payroll calculator the workflow needs.
type Payroll interface {
	Calculate(ctx context.Context, employeeID string) (*payroll.Breakdown, error)
	FindEmployee(ctx context.Context, identifier string) (hr.Employee, error)
	Report(ctx context.Context, department string) (*payroll.Report, error)
	ListEmployees(ctx context.Context) ([]hr.Employee, error)
	SearchEmployees(ctx context.Context, term string) ([]hr.Employee, error)
}

type Engine struct {
	candidates CandidateSearcher
	payroll    Payroll
	responder  ai.Responder
	topK       int
	logger     *zap.Logger
}

type Option func(*Engine)

// WithResponder answers general questions with a language model before the
// capability message.
func WithResponder(r ai.Responder) Option {
	return func(e *Engine) { e.responder = r }
}

// WithTopK sets the number of candidates returned by a search.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

func New(candidates CandidateSearcher, pay Payroll, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		candidates: candidates,
		payroll:    pay,
		topK:       ats.DefaultTopK,
		logger:     logger.OrNop(log).Named("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs query for caller and returns the rendered reply. It never fails;
// infrastructure errors are logged and replaced with a generic message.
func (e *Engine) Process(ctx context.Context, query string, caller hr.Caller) string {
	return e.Run(ctx, query, caller).Response
}

// Run executes the graph and returns the full record of the run.
func (e *Engine) Run(ctx context.Context, query string, caller hr.Caller) *Record {
	rec := &Record{Query: strings.TrimSpace(query), Caller: caller}
	log := e.logger.With(logger.CallerFields(caller.Username, string(caller.Role), caller.EmployeeID)...)

	for state := StateCheckPermissions; state != StateDone; state = Next(state, rec) {
		rec.Path = append(rec.Path, state)
		log.Debug("workflow state", zap.Stringer("state", state))
		e.step(ctx, log, state, rec)
	}

	log.Info("query processed",
		zap.String("intent", string(rec.Intent)),
		zap.Bool("granted", rec.Verdict.Granted),
		zap.Int("states", len(rec.Path)),
	)
	return rec
}

func (e *Engine) step(ctx context.Context, log *zap.Logger, state State, rec *Record) {
	switch state {
	case StateCheckPermissions:
		rec.Verdict = permission.Check(rec.Caller, rec.Query)
		if !rec.Verdict.Granted {
			log.Info("query denied", zap.String("reason", rec.Verdict.Reason))
		}
	case StateClassifyIntent:
		rec.Intent = intent.Classify(rec.Query)
	case StateHandleSearch:
		res, err := e.handleSearch(ctx, rec)
		rec.Result = e.settle(log, res, err)
	case StateHandlePayroll:
		res, err := e.handlePayroll(ctx, rec)
		rec.Result = e.settle(log, res, err)
	case StateRespond:
		if rec.Result != nil {
			rec.Response = Format(rec.Result)
			return
		}
		rec.Response = e.general(ctx, log, rec)
	case StateDenied:
		rec.Response = AccessDenied(rec.Caller, rec.Verdict.Reason)
	}
}

// settle turns a handler error into a result the caller can see.
func (e *Engine) settle(log *zap.Logger, res ToolResult, err error) ToolResult {
	if err == nil {
		return res
	}
	if hr.IsDomain(err) {
		var empty *hr.EmptyResultError
		var missing *hr.NotFoundError
		return Failure{
			Message:     err.Error(),
			Calculation: errors.As(err, &empty) || errors.As(err, &missing),
		}
	}
	log.Error("handler failed", zap.Error(err))
	return Unavailable{}
}

func (e *Engine) general(ctx context.Context, log *zap.Logger, rec *Record) string {
	message := GeneralResponse(rec.Caller)
	if e.responder == nil || rec.Query == "" {
		return message
	}

	answer, err := e.responder.Respond(ctx, rec.Query)
	if err != nil {
		log.Warn("responder failed, using capability message", zap.Error(err))
		return message
	}
	return strings.TrimSpace(answer) + "\n\n" + message
}
