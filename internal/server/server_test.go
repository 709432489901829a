package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spigell/hr-assistant/internal/ai/hashing"
	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/auth"
	"github.com/spigell/hr-assistant/internal/cv"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/payroll"
	"github.com/spigell/hr-assistant/internal/seed"
	"github.com/spigell/hr-assistant/internal/store"
	"github.com/spigell/hr-assistant/internal/workflow"
)

type testEnv struct {
	handler   http.Handler
	uploadDir string
	admin     string
	john      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	for _, e := range []hr.Employee{
		{EmployeeID: "ADM001", Name: "HR Admin", Department: "HR", Position: "HR Manager", Salary: hr.Float(90000), Active: true},
		{EmployeeID: "EMP001", Name: "John Smith", Department: "IT", Position: "Software Engineer",
			Salary: hr.Float(75000), Bonus: hr.Float(5000), Active: true},
	} {
		require.NoError(t, st.UpsertEmployee(ctx, e))
	}

	authSvc := auth.NewService(st, auth.Passwords{Cost: bcrypt.MinCost},
		auth.Tokens{Secret: "test-secret-key-for-jwt-signing-minimum-32-bytes"}, zap.NewNop())
	require.NoError(t, authSvc.Register(ctx, hr.User{Username: "admin", Password: "admin123", Role: hr.RoleAdmin, Name: "HR Admin", EmployeeID: "ADM001"}))
	require.NoError(t, authSvc.Register(ctx, hr.User{Username: "john", Password: "john123", Role: hr.RoleUser, Name: "John Smith", EmployeeID: "EMP001"}))

	candidates := ats.NewService(st, hashing.New(64), ats.Config{IndexDir: filepath.Join(t.TempDir(), "index")}, zap.NewNop())
	calc := payroll.NewCalculator(st, zap.NewNop())
	engine := workflow.New(candidates, calc, zap.NewNop())

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	srv, err := New(Config{UploadDir: uploadDir}, Deps{
		Auth:       authSvc,
		Assistant:  engine,
		Candidates: candidates,
		Payroll:    calc,
		Uploader:   seed.NewIngester(cv.NewExtractor(), candidates, 1, zap.NewNop()),
	}, zap.NewNop())
	require.NoError(t, err)

	env := &testEnv{handler: srv.Handler(), uploadDir: uploadDir}
	env.admin = env.login(t, "admin", "admin123")
	env.john = env.login(t, "john", "john123")
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) upload(t *testing.T, token, filename, content, name, position string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("position", position))
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/candidates/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", "", loginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/me", "garbage", nil).Code)

	rec := env.do(t, http.MethodGet, "/me", env.john, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, hr.Caller{Username: "john", Name: "John Smith", Role: hr.RoleUser, EmployeeID: "EMP001"}, decode[hr.Caller](t, rec))
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/chat", env.admin, chatRequest{Query: "Calculate salary for EMP001"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.True(t, resp.Granted)
	assert.Equal(t, "payroll", resp.Intent)
	assert.Equal(t, []string{"check_permissions", "classify_intent", "handle_payroll", "respond"}, resp.Path)
	assert.Contains(t, resp.Response, "Salary Calculation for John Smith")

	rec = env.do(t, http.MethodPost, "/chat", env.john, chatRequest{Query: "Calculate salary for ADM001"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[chatResponse](t, rec)
	assert.False(t, resp.Granted)
	assert.Equal(t, []string{"check_permissions", "access_denied"}, resp.Path)
	assert.Contains(t, resp.Response, "🚫 Access Denied")

	rec = env.do(t, http.MethodPost, "/chat", env.john, chatRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCandidateRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/candidates", env.john, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "This action is available to HR Admin users only.", decode[errorResponse](t, rec).Error)
}

func TestUploadSearchDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, env.admin, "resume.txt",
		"Java developer with 5 years of experience. Spring, Docker. Contact: jane@example.com",
		"Jane Roe", "Java Developer")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[hr.Candidate](t, rec)
	assert.Equal(t, 5, created.ExperienceYears)
	assert.Equal(t, "jane@example.com", created.Email)

	files, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, hr.CandidateIdentity{Name: "Jane Roe", Position: "Java Developer"}, cv.IdentityFromFilename(files[0].Name()))

	rec = env.upload(t, env.admin, "resume.txt", "Another text", "Jane Roe", "Java Developer")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/candidates/search", env.admin, map[string]any{
		"query":   "java spring",
		"filters": map[string]any{"min_experience": "3"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])

	rec = env.do(t, http.MethodPost, "/candidates/search", env.admin, map[string]any{
		"query":   "java",
		"filters": map[string]any{"salary": 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	id := hr.CandidateIdentity{Name: "Jane Roe", Position: "Java Developer"}
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/candidates", env.admin, id).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/candidates", env.admin, id).Code)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, env.admin, "resume.exe", "binary", "Jane Roe", "Java Developer")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.upload(t, env.admin, "resume.txt", "text", "", "Java Developer")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadRemovesFileWhenExtractionFails(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, env.admin, "resume.txt", "   ", "Jane Roe", "Java Developer")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	files, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSalary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/payroll/salary/emp001", env.john, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[payroll.Breakdown](t, rec)
	assert.Equal(t, 80000.0, b.GrossSalary)
	assert.Equal(t, 72000.0, b.NetSalary)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/payroll/salary/ADM001", env.john, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/payroll/salary/EMP001", env.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/payroll/salary/EMP404", env.admin, nil).Code)
}

func TestReport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/payroll/report?department=IT", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[payroll.Report](t, rec).TotalEmployees)

	rec = env.do(t, http.MethodGet, "/payroll/report?department=Sales", env.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no employees found for Sales Department", decode[errorResponse](t, rec).Error)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/payroll/report", env.john, nil).Code)
}

func TestListEmployees(t *testing.T) {
	env := newTestEnv(t)

	type listing struct {
		Total     int           `json:"total"`
		Employees []hr.Employee `json:"employees"`
	}

	rec := env.do(t, http.MethodGet, "/payroll/employees", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[listing](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/payroll/employees?q=software", env.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[listing](t, rec)
	require.Equal(t, 1, got.Total)
	assert.Equal(t, "EMP001", got.Employees[0].EmployeeID)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/payroll/employees", env.john, nil).Code)
}

func TestUpdateCompensation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/payroll/employees/EMP001", env.admin, map[string]any{"bonus": 10000})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/payroll/salary/EMP001", env.admin, nil)
	assert.Equal(t, 85000.0, decode[payroll.Breakdown](t, rec).GrossSalary)

	rec = env.do(t, http.MethodPatch, "/payroll/employees/EMP001", env.admin, map[string]any{"tax_rate": 1.5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPatch, "/payroll/employees/EMP001", env.admin, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPatch, "/payroll/employees/EMP404", env.admin, map[string]any{"bonus": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{&hr.PermissionDeniedError{Reason: "no"}, http.StatusForbidden},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{hr.NotFound("employee", "EMP404"), http.StatusNotFound},
		{&hr.EmptyResultError{Scope: "IT Department"}, http.StatusNotFound},
		{&hr.DuplicateError{}, http.StatusConflict},
		{hr.ErrValidation, http.StatusUnprocessableEntity},
		{&hr.ExtractionError{Path: "x", Err: errors.New("bad")}, http.StatusUnprocessableEntity},
		{hr.Unavailable(errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
