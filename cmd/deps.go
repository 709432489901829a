package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hr-assistant/internal/ai"
	"github.com/spigell/hr-assistant/internal/ai/gemini"
	"github.com/spigell/hr-assistant/internal/ai/hashing"
	"github.com/spigell/hr-assistant/internal/ai/openai"
	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/auth"
	"github.com/spigell/hr-assistant/internal/cv"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/payroll"
	"github.com/spigell/hr-assistant/internal/secrets"
	"github.com/spigell/hr-assistant/internal/seed"
	"github.com/spigell/hr-assistant/internal/store"
	"github.com/spigell/hr-assistant/internal/store/mongostore"
	"github.com/spigell/hr-assistant/internal/store/sqlstore"
	"github.com/spigell/hr-assistant/internal/workflow"
)

// withServices runs fn with a logger, the config and the wired services, and
// exits on error.
func withServices(fn func(ctx context.Context, svc *services, config *Config, logger *zap.Logger) error) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := newServices(ctx, config, false, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}

	err = fn(ctx, svc, config, logger)
	if cerr := svc.Close(); cerr != nil {
		logger.Warn("closing store", zap.Error(cerr))
	}
	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

// services holds everything a command may need, built from one config.
type services struct {
	store      store.Store
	candidates *ats.Service
	payroll    *payroll.Calculator
	auth       *auth.Service
	engine     *workflow.Engine
	ingester   *seed.Ingester
}

// newServices opens the store, restores the candidate index and wires the
// assistant. A missing jwt secret is an error only when requireSecret is set;
// otherwise an ephemeral one is generated for this process.
func newServices(ctx context.Context, config *Config, requireSecret bool, logger *zap.Logger) (*services, error) {
	st, err := openStore(ctx, config.Store, viper.GetBool("debug"), logger)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, config.Embedder, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	candidates := ats.NewService(st, embedder, ats.Config{IndexDir: config.Index.Dir}, logger)
	if err := candidates.Load(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("loading candidate index: %w", err)
	}

	calculator := payroll.NewCalculator(st, logger)

	authService, err := newAuth(st, config.Auth, requireSecret, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := []workflow.Option{workflow.WithTopK(config.Search.TopK)}
	if config.Responder.Enabled {
		responder, err := newResponder(ctx, config.Responder, logger)
		if err != nil {
			logger.Warn("general answers fall back to capability messages", zap.Error(err))
		} else {
			opts = append(opts, workflow.WithResponder(responder))
		}
	}

	extractor := cv.NewExtractor(cv.WithDocuments())

	return &services{
		store:      st,
		candidates: candidates,
		payroll:    calculator,
		auth:       authService,
		engine:     workflow.New(candidates, calculator, logger, opts...),
		ingester:   seed.NewIngester(extractor, candidates, config.Seed.Workers, logger),
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}

func openStore(ctx context.Context, cfg *StoreConfig, debug bool, logger *zap.Logger) (store.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	logger.Info("opening store", zap.String("driver", driver))

	switch driver {
	case "memory":
		return store.NewMemory(), nil
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		dsn, err := secrets.Load(secrets.Source{
			Name:  driver + " dsn",
			Value: cfg.DSN,
			Env:   []string{"DATABASE_URL"},
		})
		if err != nil {
			return nil, err
		}
		return sqlstore.Open(driver, dsn, debug)
	case "mongo", "mongodb":
		uri, err := secrets.Load(secrets.Source{
			Name:  "mongodb uri",
			Value: cfg.DSN,
			Env:   []string{"MONGODB_URI"},
		})
		if err != nil {
			return nil, err
		}
		return mongostore.Open(ctx, uri, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func newEmbedder(ctx context.Context, cfg *EmbedderConfig, logger *zap.Logger) (ai.Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case "", "hashing":
		return hashing.New(cfg.Dimension), nil
	case "gemini":
		client, err := geminiClient(ctx, cfg.APIKey, cfg.APIKeyFile)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, gemini.EmbedderConfig{
			Model:      cfg.Model,
			Dimension:  cfg.Dimension,
			MaxRetries: cfg.MaxRetries,
			BatchSize:  cfg.BatchSize,
		}, logger)
	case "openai":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   []string{"OPENAI_API_KEY"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set embedder.api-key-file or OPENAI_API_KEY)", err)
		}
		return openai.New(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimension:  cfg.Dimension,
			MaxRetries: cfg.MaxRetries,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}
}

func newResponder(ctx context.Context, cfg *ResponderConfig, logger *zap.Logger) (ai.Responder, error) {
	client, err := geminiClient(ctx, cfg.APIKey, cfg.APIKeyFile)
	if err != nil {
		return nil, err
	}

	return gemini.NewResponder(client, gemini.ResponderConfig{
		Model:        cfg.Model,
		MaxRetries:   cfg.MaxRetries,
		MaxLogLength: cfg.MaxLogLength,
	}, logger)
}

func geminiClient(ctx context.Context, value, file string) (*genai.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: value,
		File:  file,
		Env:   []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set api-key-file or GEMINI_API_KEY)", err)
	}
	return gemini.NewClient(ctx, apiKey)
}

func newAuth(users store.UserStore, cfg *AuthConfig, requireSecret bool, logger *zap.Logger) (*auth.Service, error) {
	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		Value: cfg.JWTSecret,
		File:  cfg.JWTSecretFile,
		Env:   []string{"JWT_SECRET"},
	})
	if err != nil {
		if requireSecret {
			return nil, fmt.Errorf("%w (set auth.jwt-secret-file or JWT_SECRET)", err)
		}
		secret = uuid.NewString() + uuid.NewString()
		logger.Debug("using an ephemeral jwt secret")
	}

	passwords := auth.Passwords{Cost: cfg.BcryptCost, Pepper: cfg.Pepper}
	if err := passwords.Validate(); err != nil {
		return nil, err
	}

	tokens := auth.Tokens{Secret: secret, TTL: cfg.TokenTTL}
	if err := tokens.Validate(); err != nil {
		return nil, err
	}

	return auth.NewService(users, passwords, tokens, logger), nil
}
