package config

import (
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentProduction  = "production"

	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"

	configFileEnv     = "CONFIG_FILE"
	defaultConfigFile = "/config/hondana.yaml"

	// testWebhookSecret is a syntactically valid Svix signing secret.
	testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
)

type Config struct {
	Environment string `koanf:"environment" default:"development" validate:"oneof=development test production"`

	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseDriver            string        `koanf:"database_driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DatabaseFilePath          string        `koanf:"database_file_path" validate:"required_if=DatabaseDriver sqlite"`
	DatabaseURL               string        `koanf:"database_url" validate:"required_if=DatabaseDriver postgres"`

	ServerHost string `koanf:"server_host" default:"0.0.0.0"`
	ServerPort int    `koanf:"server_port" default:"3690"`

	// SessionPublicKey is a PEM encoded RSA key used to verify RS256 session
	// tokens. When it's empty, tokens are verified as HS256 with
	// SessionSecret.
	SessionPublicKey string `koanf:"session_public_key"`
	SessionSecret    string `koanf:"session_secret" validate:"required_without=SessionPublicKey"`

	WebhookRateLimit float64 `koanf:"webhook_rate_limit" default:"20" validate:"gt=0"`
	WebhookSecret    string  `koanf:"webhook_secret" validate:"required"`
}

// New builds the config from struct defaults, then the YAML config file (if it
// exists), then environment variables. Later sources win.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileEnv)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithStack(err)
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory SQLite database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)

	cfg.Environment = EnvironmentTest
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.SessionSecret = "test-session-secret"
	cfg.WebhookSecret = testWebhookSecret

	return cfg
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WithStack(err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := toSnakeCase(fe.StructField())
		envName := strings.ToUpper(key)
		switch fe.Tag() {
		case "required", "required_if", "required_without":
			msgs = append(msgs, fmt.Sprintf("missing required config: %s (%s)", envName, key))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid config: %s (%s) must be one of: %s", envName, key, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid config: %s (%s) failed %q", envName, key, fe.Tag()))
		}
	}

	return errors.New(strings.Join(msgs, "; "))
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}

// ServerAddr is the address the HTTP server listens on.
func (cfg *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
}

// IsTest reports whether test-only routes should be registered.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == EnvironmentTest
}

// keys lists every koanf key the config understands. It's used by tests to
// make sure that every field is addressable from a file and the environment.
func keys() []string {
	t := reflect.TypeOf(Config{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, t.Field(i).Tag.Get("koanf"))
	}
	return out
}
