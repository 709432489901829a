// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/payroll"
	"github.com/spigell/hr-assistant/internal/workflow"
)

const (
	DefaultAddr           = ":8080"
	defaultMaxUploadBytes = 10 << 20
	shutdownTimeout       = 10 * time.Second
)

// Authenticator logs users in and verifies their tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, *hr.User, error)
	Authenticate(token string) (hr.Caller, error)
}

// Assistant answers chat queries.
type Assistant interface {
	Run(ctx context.Context, query string, caller hr.Caller) *workflow.Record
}

type Candidates interface {
	ListCandidates(ctx context.Context) ([]hr.Candidate, error)
	SearchWithFilters(ctx context.Context, query string, topK int, f ats.Filters) ([]ats.Result, error)
	DeleteCandidate(ctx context.Context, id hr.CandidateIdentity) error
	Rebuild(ctx context.Context) error
	RemoveDuplicates(ctx context.Context) (int, error)
	Analytics(ctx context.Context) (ats.Analytics, error)
	Len() int
}

type Payroll interface {
	Calculate(ctx context.Context, employeeID string) (*payroll.Breakdown, error)
	Report(ctx context.Context, department string) (*payroll.Report, error)
	ListEmployees(ctx context.Context) ([]hr.Employee, error)
	SearchEmployees(ctx context.Context, term string) ([]hr.Employee, error)
	UpdateCompensation(ctx context.Context, employeeID string, update hr.CompensationUpdate) error
	Analytics(ctx context.Context) (payroll.Analytics, error)
}

// Uploader adds a stored resume file to the candidate index.
type Uploader interface {
	IngestFile(ctx context.Context, path string, identity hr.CandidateIdentity) (hr.Candidate, error)
}

type Config struct {
	Addr           string
	UploadDir      string
	MaxUploadBytes int64
	// UploadTypes lists accepted resume extensions, with leading dot.
	UploadTypes []string
}

type Deps struct {
	Auth       Authenticator
	Assistant  Assistant
	Candidates Candidates
	Payroll    Payroll
	Uploader   Uploader
}

type Server struct {
	cfg      Config
	deps     Deps
	validate *validator.Validate
	handler  http.Handler
	now      func() time.Time
	logger   *zap.Logger
}

func New(cfg Config, deps Deps, log *zap.Logger) (*Server, error) {
	switch {
	case deps.Auth == nil:
		return nil, errors.New("server: authenticator is required")
	case deps.Assistant == nil:
		return nil, errors.New("server: assistant is required")
	case deps.Candidates == nil || deps.Payroll == nil || deps.Uploader == nil:
		return nil, errors.New("server: candidate, payroll and upload services are required")
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(cfg.UploadTypes) == 0 {
		cfg.UploadTypes = []string{".pdf", ".docx", ".doc", ".txt"}
	}

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		validate: hr.NewValidator(),
		now:      time.Now,
		logger:   logger.OrNop(log).Named("server"),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.Handle("GET /me", s.authenticated(s.handleMe))
	mux.Handle("POST /chat", s.authenticated(s.handleChat))

	mux.Handle("GET /candidates", s.admin(s.handleListCandidates))
	mux.Handle("DELETE /candidates", s.admin(s.handleDeleteCandidate))
	mux.Handle("POST /candidates/search", s.admin(s.handleSearchCandidates))
	mux.Handle("POST /candidates/upload", s.admin(s.handleUpload))
	mux.Handle("POST /candidates/rebuild", s.admin(s.handleRebuild))
	mux.Handle("POST /candidates/dedupe", s.admin(s.handleDedupe))
	mux.Handle("GET /candidates/analytics", s.admin(s.handleCandidateAnalytics))

	mux.Handle("GET /payroll/salary/{id}", s.authenticated(s.handleSalary))
	mux.Handle("GET /payroll/report", s.admin(s.handleReport))
	mux.Handle("GET /payroll/employees", s.admin(s.handleListEmployees))
	mux.Handle("PATCH /payroll/employees/{id}", s.admin(s.handleUpdateCompensation))
	mux.Handle("GET /payroll/analytics", s.admin(s.handlePayrollAnalytics))

	return s.recoverPanics(s.logRequests(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
