package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coregx/sqlsink"
)

// Config is the CLI configuration file.
type Config struct {
	Driver           string   `yaml:"driver"`
	DSN              string   `yaml:"dsn"`
	QuoteIdentifiers bool     `yaml:"quote_identifiers"`
	TimeZone         string   `yaml:"time_zone"`
	LogLevel         string   `yaml:"log_level"`
	SensitiveFields  []string `yaml:"sensitive_fields"`
}

var errNoConnection = errors.New("driver and dsn are required")

// loadConfig reads path when set and applies the non-empty flag values on top.
func loadConfig(path string, flags Config) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if flags.Driver != "" {
		cfg.Driver = flags.Driver
	}
	if flags.DSN != "" {
		cfg.DSN = flags.DSN
	}
	if flags.QuoteIdentifiers {
		cfg.QuoteIdentifiers = true
	}
	if flags.TimeZone != "" {
		cfg.TimeZone = flags.TimeZone
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("SQLSINK_DSN")
	}

	if cfg.Driver == "" || cfg.DSN == "" {
		return Config{}, errNoConnection
	}
	return cfg, nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// RecordFile is a change record in YAML form.
type RecordFile struct {
	Topic     string          `yaml:"topic"`
	Operation string          `yaml:"operation"`
	Key       []sqlsink.Field `yaml:"key"`
	Fields    []sqlsink.Field `yaml:"fields"`
}

func loadRecord(path string) (*sqlsink.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rf RecordFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}
	return rf.build()
}

func (rf RecordFile) build() (*sqlsink.Record, error) {
	op := sqlsink.Create
	if strings.TrimSpace(rf.Operation) != "" {
		var err error
		if op, err = sqlsink.ParseOperation(rf.Operation); err != nil {
			return nil, err
		}
	}
	return sqlsink.NewRecord().
		Topic(rf.Topic).
		Operation(op).
		Key(rf.Key...).
		Field(rf.Fields...).
		Build()
}
