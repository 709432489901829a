package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	users     store.UserStore
	passwords Passwords
	tokens    Tokens
	logger    *zap.Logger
}

func NewService(users store.UserStore, passwords Passwords, tokens Tokens, log *zap.Logger) *Service {
	return &Service{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger.OrNop(log).Named("auth"),
	}
}

// Login checks the credentials and returns a signed token with the account.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *hr.User, error) {
	u, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, hr.ErrNotFound) {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if u.PasswordHash == "" || !s.passwords.Verify(password, u.PasswordHash) {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "password mismatch"))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("login succeeded", logger.CallerFields(u.Username, string(u.Role), u.EmployeeID)...)
	return token, &u, nil
}

// Authenticate verifies a bearer token and returns the caller it was issued for.
func (s *Service) Authenticate(token string) (hr.Caller, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return hr.Caller{}, err
	}
	return claims.Caller(), nil
}

// Register hashes the plaintext password of u, when set, and stores the account.
func (s *Service) Register(ctx context.Context, u hr.User) error {
	if u.Password != "" {
		hash, err := s.passwords.Hash(u.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.Password = ""
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: user %s has no password", hr.ErrValidation, u.Username)
	}
	u.Role = hr.ParseRole(string(u.Role))

	if err := s.users.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("store user %s: %w", u.Username, err)
	}
	return nil
}
