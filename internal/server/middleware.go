package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
)

type contextKey string

const (
	callerKey  contextKey = "caller"
	requestKey contextKey = "request"
)

// requestInfo is filled in by inner handlers for the access log.
type requestInfo struct {
	caller *hr.Caller
}

func withCaller(ctx context.Context, c hr.Caller) context.Context {
	if info, ok := ctx.Value(requestKey).(*requestInfo); ok {
		info.caller = &c
	}
	return context.WithValue(ctx, callerKey, c)
}

// callerFrom returns the authenticated caller of the request.
func callerFrom(r *http.Request) (hr.Caller, bool) {
	c, ok := r.Context().Value(callerKey).(hr.Caller)
	return c, ok
}

// authenticated requires a valid bearer token.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		caller, err := s.deps.Auth.Authenticate(parts[1])
		if err != nil {
			s.logger.Debug("token rejected", zap.Error(err))
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// admin requires a valid token issued to an elevated caller.
func (s *Server) admin(next http.HandlerFunc) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := callerFrom(r)
		if !caller.IsElevated() {
			s.writeError(w, r, &hr.PermissionDeniedError{Reason: "This action is available to HR Admin users only."})
			return
		}
		next(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		info := &requestInfo{}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestKey, info)))

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		}
		if c := info.caller; c != nil {
			fields = append(fields, logger.CallerFields(c.Username, string(c.Role), c.EmployeeID)...)
		}
		s.logger.Debug("http request", fields...)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("panic while serving request", zap.Any("panic", v), zap.String("path", r.URL.Path))
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
