package cmd

import (
	"context"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ai/hashing"
	"github.com/spigell/hr-assistant/internal/store"
)

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	c := &Config{DataDir: "var"}
	c.applyDefaults()

	if c.Store.Driver != "sqlite" || c.Store.DSN != filepath.Join("var", "hr-assistant.db") {
		t.Fatalf("unexpected store defaults: %+v", c.Store)
	}
	if c.Index.Dir != filepath.Join("var", "index") {
		t.Fatalf("unexpected index dir %q", c.Index.Dir)
	}
	if c.Uploads.Dir != filepath.Join("var", "uploads") {
		t.Fatalf("unexpected uploads dir %q", c.Uploads.Dir)
	}
	if c.Search.TopK != 5 {
		t.Fatalf("unexpected top-k %d", c.Search.TopK)
	}
	if c.Embedder.Provider != "hashing" {
		t.Fatalf("unexpected embedder provider %q", c.Embedder.Provider)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	c := &Config{
		Store: &StoreConfig{Driver: "postgres", DSN: "postgres://hr@db/hr"},
		Index: &IndexConfig{Dir: "/srv/index"},
	}
	c.applyDefaults()

	if c.Store.DSN != "postgres://hr@db/hr" || c.Index.Dir != "/srv/index" {
		t.Fatalf("explicit values overwritten: %+v %+v", c.Store, c.Index)
	}
}

func TestConfigKeys(t *testing.T) {
	t.Parallel()

	keys := configKeys(reflect.TypeOf(Config{}), "")
	for _, want := range []string{"data-dir", "auth.jwt-secret", "auth.token-ttl", "store.dsn", "embedder.api-key", "seed.cv-dir"} {
		if !slices.Contains(keys, want) {
			t.Fatalf("missing key %q in %v", want, keys)
		}
	}
	if slices.Contains(keys, "auth") {
		t.Fatalf("sections must not be keys: %v", keys)
	}
}

func TestEnvOnlyConfig(t *testing.T) {
	t.Setenv("HR_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("HR_STORE_DSN", "postgres://hr@db/hr")
	t.Setenv("HR_EMBEDDER_API_KEY", "env-key")

	bindEnv()
	config, err := getConfig()
	if err != nil {
		t.Fatalf("getConfig: %v", err)
	}

	if config.Auth.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret not read from the environment: %q", config.Auth.JWTSecret)
	}
	if config.Store.DSN != "postgres://hr@db/hr" {
		t.Fatalf("store dsn not read from the environment: %q", config.Store.DSN)
	}
	if config.Embedder.APIKey != "env-key" {
		t.Fatalf("embedder key not read from the environment: %q", config.Embedder.APIKey)
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	st, err := openStore(context.Background(), &StoreConfig{Driver: "Memory"}, false, zap.NewNop())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := st.(*store.Memory); !ok {
		t.Fatalf("expected memory store, got %T", st)
	}

	if _, err := openStore(context.Background(), &StoreConfig{Driver: "redis"}, false, zap.NewNop()); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestNewEmbedder(t *testing.T) {
	t.Parallel()

	e, err := newEmbedder(context.Background(), &EmbedderConfig{Provider: "hashing", Dimension: 32}, zap.NewNop())
	if err != nil {
		t.Fatalf("newEmbedder: %v", err)
	}
	if h, ok := e.(*hashing.Embedder); !ok || h.Dimension() != 32 {
		t.Fatalf("unexpected embedder %T", e)
	}

	if _, err := newEmbedder(context.Background(), &EmbedderConfig{Provider: "word2vec"}, zap.NewNop()); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

func TestNewAuthEphemeralSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := newAuth(store.NewMemory(), &AuthConfig{BcryptCost: 4}, true, zap.NewNop()); err == nil {
		t.Fatal("expected an error when the secret is required")
	}

	svc, err := newAuth(store.NewMemory(), &AuthConfig{BcryptCost: 4}, false, zap.NewNop())
	if err != nil || svc == nil {
		t.Fatalf("expected an ephemeral secret, got %v", err)
	}
}
