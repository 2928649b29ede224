package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "CIVISOS_"

// ErrInvalidEnvironment is returned when one or more variables cannot be used.
var ErrInvalidEnvironment = errors.New("invalid environment values")

// Config captures environment driven configuration values for the CivisOS service.
type Config struct {
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	SQLiteDSN       string        `env:"SQLITE_DSN"`
	SeedFile        string        `env:"SEED_FILE"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IoTEventLimit   int           `env:"IOT_EVENT_LIMIT" envDefault:"1000"`
}

// UsesMemoryStore reports whether snapshots and staff live in process memory.
func (c Config) UsesMemoryStore() bool {
	return strings.TrimSpace(c.SQLiteDSN) == ""
}

// Load reads an optional .env file from the working directory and parses
// configuration values from the process environment. Variables already set
// in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{Prefix: envPrefix})
}

// Parse builds a Config from an explicit variable map instead of the process
// environment.
func Parse(environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Prefix: envPrefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	invalid := make([]string, 0, 2)

	parseErr := env.ParseWithOptions(&cfg, opts)
	if parseErr != nil {
		var aggregate env.AggregateError
		if !errors.As(parseErr, &aggregate) {
			return Config{}, fmt.Errorf("parse environment: %w", parseErr)
		}
		for _, err := range aggregate.Errors {
			var fieldErr env.ParseError
			if errors.As(err, &fieldErr) {
				invalid = append(invalid, variableName(fieldErr.Name))
			}
		}
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = appendOnce(invalid, variableName("HTTPPort"))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = appendOnce(invalid, variableName("LogFormat"))
	}
	if cfg.ShutdownTimeout <= 0 {
		invalid = appendOnce(invalid, variableName("ShutdownTimeout"))
	}
	if cfg.IoTEventLimit <= 0 {
		invalid = appendOnce(invalid, variableName("IoTEventLimit"))
	}

	if len(invalid) > 0 {
		if parseErr != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidEnvironment, strings.Join(invalid, ", "), parseErr)
		}
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidEnvironment, strings.Join(invalid, ", "))
	}
	if parseErr != nil {
		return Config{}, fmt.Errorf("parse environment: %w", parseErr)
	}

	cfg.SQLiteDSN = strings.TrimSpace(cfg.SQLiteDSN)
	cfg.SeedFile = strings.TrimSpace(cfg.SeedFile)
	return cfg, nil
}

// variableName maps a Config field to the variable that sets it.
func variableName(field string) string {
	sf, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return field
	}
	return envPrefix + sf.Tag.Get("env")
}

func appendOnce(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}
