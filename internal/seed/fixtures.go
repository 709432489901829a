// Package seed loads fixture records and ingests resume directories.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/store"
)

type employeesFile struct {
	Employees []hr.Employee `yaml:"employees"`
}

type usersFile struct {
	Users []hr.User `yaml:"users"`
}

// LoadEmployees reads and validates an employees fixture. Every loaded record is active.
func LoadEmployees(path string) ([]hr.Employee, error) {
	var f employeesFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}

	v := hr.NewValidator()
	seen := make(map[string]struct{}, len(f.Employees))
	for i := range f.Employees {
		e := &f.Employees[i]
		e.EmployeeID = strings.ToUpper(strings.TrimSpace(e.EmployeeID))
		e.Active = true
		if err := hr.Validate(v, e); err != nil {
			return nil, fmt.Errorf("employee #%d (%s): %w", i+1, e.EmployeeID, err)
		}
		if _, dup := seen[e.EmployeeID]; dup {
			return nil, fmt.Errorf("%w: employee ID %s already exists", hr.ErrValidation, e.EmployeeID)
		}
		seen[e.EmployeeID] = struct{}{}
	}
	return f.Employees, nil
}

// LoadUsers reads and validates a users fixture. Roles are normalised.
func LoadUsers(path string) ([]hr.User, error) {
	var f usersFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}

	v := hr.NewValidator()
	seen := make(map[string]struct{}, len(f.Users))
	for i := range f.Users {
		u := &f.Users[i]
		u.Role = hr.ParseRole(string(u.Role))
		if err := hr.Validate(v, u); err != nil {
			return nil, fmt.Errorf("user #%d (%s): %w", i+1, u.Username, err)
		}
		if _, dup := seen[u.Username]; dup {
			return nil, fmt.Errorf("%w: username %s already exists", hr.ErrValidation, u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return f.Users, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return nil
}

// Registrar stores accounts, hashing plaintext passwords on the way.
type Registrar interface {
	Register(ctx context.Context, u hr.User) error
}

// Result counts what a bootstrap run wrote.
type Result struct {
	Employees int
	Users     int
}

// Bootstrap upserts employees into st and registers users. Empty paths are skipped.
func Bootstrap(ctx context.Context, st store.EmployeeStore, users Registrar, employeesPath, usersPath string, log *zap.Logger) (Result, error) {
	log = logger.OrNop(log).Named("seed")
	var res Result

	if employeesPath != "" {
		employees, err := LoadEmployees(employeesPath)
		if err != nil {
			return res, err
		}
		for _, e := range employees {
			if err := st.UpsertEmployee(ctx, e); err != nil {
				return res, fmt.Errorf("store employee %s: %w", e.EmployeeID, err)
			}
			res.Employees++
		}
		log.Info("employees seeded", zap.Int("count", res.Employees), zap.String("path", employeesPath))
	}

	if usersPath != "" {
		if users == nil {
			return res, errors.New("user registrar is required to seed users")
		}
		accounts, err := LoadUsers(usersPath)
		if err != nil {
			return res, err
		}
		for _, u := range accounts {
			if err := users.Register(ctx, u); err != nil {
				return res, err
			}
			res.Users++
		}
		log.Info("users seeded", zap.Int("count", res.Users), zap.String("path", usersPath))
	}

	return res, nil
}
