package cmd

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hr-assistant"
)

type Config struct {
	DataDir   string           `mapstructure:"data-dir"`
	Store     *StoreConfig     `mapstructure:"store"`
	Embedder  *EmbedderConfig  `mapstructure:"embedder"`
	Responder *ResponderConfig `mapstructure:"responder"`
	Index     *IndexConfig     `mapstructure:"index"`
	Search    *SearchConfig    `mapstructure:"search"`
	Server    *ServerConfig    `mapstructure:"server"`
	Auth      *AuthConfig      `mapstructure:"auth"`
	Seed      *SeedConfig      `mapstructure:"seed"`
	Uploads   *UploadsConfig   `mapstructure:"uploads"`
}

type IndexConfig struct {
	Dir string `mapstructure:"dir"`
}

type SearchConfig struct {
	TopK int `mapstructure:"top-k"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres or mongo.
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Database string `mapstructure:"database"`
}

type EmbedderConfig struct {
	Provider   string `mapstructure:"provider"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
	Dimension  int    `mapstructure:"dimension"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxRetries int    `mapstructure:"max-retries"`
	BatchSize  int    `mapstructure:"batch-size"`
}

type ResponderConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt-secret"`
	JWTSecretFile string        `mapstructure:"jwt-secret-file"`
	TokenTTL      time.Duration `mapstructure:"token-ttl"`
	BcryptCost    int           `mapstructure:"bcrypt-cost"`
	Pepper        string        `mapstructure:"pepper"`
}

type SeedConfig struct {
	Users     string `mapstructure:"users"`
	Employees string `mapstructure:"employees"`
	CVDir     string `mapstructure:"cv-dir"`
	Workers   int    `mapstructure:"workers"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hr-assistant answers HR questions about candidates and payroll with role-based access",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hr-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("data-dir", "data")
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("embedder.provider", "hashing")
	viper.SetDefault("search.top-k", 5)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("auth.token-ttl", 24*time.Hour)
	viper.SetDefault("auth.bcrypt-cost", 12)
}

func initConfig() {
	// A missing .env file is fine, variables may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	bindEnv()

	// Version output does not need a config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Without a config file everything comes from defaults and the environment,
	// but a broken one must stop us.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// bindEnv makes every Config key settable as HR_<KEY>, e.g. HR_AUTH_JWT_SECRET,
// even when no config file mentions it.
func bindEnv() {
	viper.SetEnvPrefix("HR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		viper.BindEnv(key)
	}
}

// configKeys lists the dotted mapstructure keys of every leaf field of t.
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			keys = append(keys, configKeys(ft, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	config.applyDefaults()
	return config, nil
}

// applyDefaults fills sections the config file left out and derives paths from data-dir.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Driver == "sqlite" && c.Store.DSN == "" {
		c.Store.DSN = filepath.Join(c.DataDir, app+".db")
	}
	if c.Store.Database == "" {
		c.Store.Database = "hr_assistant"
	}
	if c.Embedder == nil {
		c.Embedder = &EmbedderConfig{Provider: "hashing"}
	}
	if c.Responder == nil {
		c.Responder = &ResponderConfig{}
	}
	if c.Index == nil {
		c.Index = &IndexConfig{}
	}
	if c.Index.Dir == "" {
		c.Index.Dir = filepath.Join(c.DataDir, "index")
	}
	if c.Search == nil {
		c.Search = &SearchConfig{TopK: 5}
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Seed == nil {
		c.Seed = &SeedConfig{}
	}
	if c.Uploads == nil {
		c.Uploads = &UploadsConfig{}
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = filepath.Join(c.DataDir, "uploads")
	}
}
