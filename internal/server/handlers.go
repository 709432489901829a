package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/cv"
	"github.com/spigell/hr-assistant/internal/hr"
)

const maxNameAttempts = 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"vectors": s.deps.Candidates.Len(),
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  hr.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, u, err := s.deps.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: *u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r)
	writeJSON(w, http.StatusOK, caller)
}

type chatRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

type chatResponse struct {
	Response string   `json:"response"`
	Intent   string   `json:"intent,omitempty"`
	Granted  bool     `json:"granted"`
	Path     []string `json:"path"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := callerFrom(r)
	rec := s.deps.Assistant.Run(r.Context(), req.Query, caller)

	path := make([]string, len(rec.Path))
	for i, st := range rec.Path {
		path[i] = st.String()
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response: rec.Response,
		Intent:   string(rec.Intent),
		Granted:  rec.Verdict.Granted,
		Path:     path,
	})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.deps.Candidates.ListCandidates(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(candidates), "candidates": candidates})
}

type searchRequest struct {
	Query   string         `json:"query"`
	TopK    int            `json:"top_k" validate:"omitempty,gte=1,lte=50"`
	Filters map[string]any `json:"filters"`
}

func (s *Server) handleSearchCandidates(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	filters, err := ats.DecodeFilters(req.Filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results, err := s.deps.Candidates.SearchWithFilters(r.Context(), req.Query, req.TopK, filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(results), "results": results})
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	var id hr.CandidateIdentity
	if err := s.decodeJSON(w, r, &id); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Candidates.DeleteCandidate(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Candidates.Rebuild(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"vectors": s.deps.Candidates.Len()})
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	removed, err := s.deps.Candidates.RemoveDuplicates(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleCandidateAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Candidates.Analytics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleUpload stores a multipart resume under the upload directory and indexes it.
// The stored file is removed again when indexing fails.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", hr.ErrValidation, err))
		return
	}

	id := hr.CandidateIdentity{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Position: strings.TrimSpace(r.FormValue("position")),
	}
	if err := hr.Validate(s.validate, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: file is required", hr.ErrValidation))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(s.cfg.UploadTypes, ext) {
		s.writeError(w, r, fmt.Errorf("%w: file type %q not allowed, use one of %s",
			hr.ErrValidation, ext, strings.Join(s.cfg.UploadTypes, ", ")))
		return
	}

	path, err := s.storeUpload(file, id, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	candidate, err := s.deps.Uploader.IngestFile(r.Context(), path, id)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove rejected upload", zap.String("path", path), zap.Error(rmErr))
		}
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("resume uploaded", zap.String("candidate", id.String()), zap.String("path", path))
	writeJSON(w, http.StatusCreated, candidate)
}

func (s *Server) storeUpload(src io.Reader, id hr.CandidateIdentity, ext string) (string, error) {
	if s.cfg.UploadDir == "" {
		return "", errors.New("upload directory is not configured")
	}
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	// Names carry a unix timestamp; step it forward on collision.
	at := s.now()
	var (
		path string
		dst  *os.File
		err  error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path = filepath.Join(s.cfg.UploadDir, cv.UploadFilename(id, ext, at.Add(time.Duration(attempt)*time.Second)))
		dst, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// handleSalary returns a breakdown. Standard callers may only read their own.
func (s *Server) handleSalary(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r)
	id := strings.ToUpper(r.PathValue("id"))

	if !caller.IsElevated() && !strings.EqualFold(id, caller.EmployeeID) {
		s.writeError(w, r, &hr.PermissionDeniedError{Reason: "You can only access your own payroll information."})
		return
	}

	breakdown, err := s.deps.Payroll.Calculate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Payroll.Report(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleListEmployees lists active employees, narrowed by ?q= when given.
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	var (
		employees []hr.Employee
		err       error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		employees, err = s.deps.Payroll.SearchEmployees(r.Context(), q)
	} else {
		employees, err = s.deps.Payroll.ListEmployees(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(employees), "employees": employees})
}

func (s *Server) handleUpdateCompensation(w http.ResponseWriter, r *http.Request) {
	var update hr.CompensationUpdate
	if err := s.decodeJSON(w, r, &update); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.deps.Payroll.UpdateCompensation(r.Context(), r.PathValue("id"), update); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayrollAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Payroll.Analytics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
