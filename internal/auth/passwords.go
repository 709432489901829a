// Package auth hashes passwords, issues bearer tokens and authenticates users.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

// Passwords hashes and verifies passwords with bcrypt and an optional pepper.
type Passwords struct {
	Cost   int
	Pepper string
}

func (p Passwords) cost() int {
	if p.Cost == 0 {
		return DefaultCost
	}
	return p.Cost
}

func (p Passwords) Validate() error {
	c := p.cost()
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost out of range: %d (must be %d-%d)", c, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Hash returns the bcrypt hash of the peppered password.
func (p Passwords) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password+p.Pepper), p.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (p Passwords) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+p.Pepper)) == nil
}
