package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spigell/hr-assistant/internal/hr"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	issuer          = "hr-assistant"
	minSecretLength = 32
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller identity inside a token.
type Claims struct {
	Username   string  `json:"username"`
	Role       hr.Role `json:"role"`
	Name       string  `json:"name"`
	EmployeeID string  `json:"employee_id,omitempty"`
	jwt.RegisteredClaims
}

// Caller returns the identity the token was issued for.
func (c *Claims) Caller() hr.Caller {
	return hr.Caller{
		Username:   c.Username,
		Name:       c.Name,
		Role:       hr.ParseRole(string(c.Role)),
		EmployeeID: c.EmployeeID,
	}
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	Secret string
	TTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (t Tokens) Validate() error {
	if len(t.Secret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	return nil
}

func (t Tokens) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t Tokens) ttl() time.Duration {
	if t.TTL <= 0 {
		return DefaultTokenTTL
	}
	return t.TTL
}

// Issue signs a token for u.
func (t Tokens) Issue(u hr.User) (string, error) {
	now := t.now()
	claims := &Claims{
		Username:   u.Username,
		Role:       u.Role,
		Name:       u.Name,
		EmployeeID: u.EmployeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl())),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns its claims. Every failure wraps ErrInvalidToken.
func (t Tokens) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(t.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !parsed.Valid:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
