// Package config loads the YAML configuration that selects and tunes a
// dialect.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
	"github.com/coregx/sqldialect/internal/security"
)

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the decoded configuration file.
type Config struct {
	Dialect   string           `yaml:"dialect"`
	Version   dialects.Version `yaml:"version,omitempty"`
	BatchSize int              `yaml:"batch_size,omitempty"`
	Sequences Sequences        `yaml:"sequences,omitempty"`
	// Capabilities holds overrides applied after the version gates. It is
	// kept undecoded so that only the keys present replace vendor values.
	Capabilities yaml.Node      `yaml:"capabilities,omitempty"`
	Logging      Logging        `yaml:"logging,omitempty"`
	Security     Security       `yaml:"security,omitempty"`
	Cache        StatementCache `yaml:"statement_cache,omitempty"`
}

// Sequences configures sequence support.
type Sequences struct {
	// Emulate opts into table-based sequence emulation (IRIS).
	Emulate bool `yaml:"emulate"`
}

// Logging configures the slog-backed logger.
type Logging struct {
	Level           string   `yaml:"level,omitempty"`
	Format          string   `yaml:"format,omitempty"`
	SensitiveFields []string `yaml:"sensitive_fields,omitempty"`
}

// Security configures fragment validation and auditing.
type Security struct {
	Strict   bool     `yaml:"strict"`
	Patterns []string `yaml:"patterns,omitempty"`
	Audit    string   `yaml:"audit,omitempty"`
}

// StatementCache configures the executor's prepared statement cache.
type StatementCache struct {
	Capacity int `yaml:"capacity,omitempty"`
}

// LoadOption configures Load and Parse.
type LoadOption func(*loadOptions)

type loadOptions struct {
	logger logger.Logger
}

// WithLogger reports the loaded configuration to l.
func WithLogger(l logger.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads and parses the configuration file at path.
func Load(path string, opts ...LoadOption) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte, opts ...LoadOption) (*Config, error) {
	o := loadOptions{logger: &logger.NoopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	o.logger.Info("configuration loaded",
		"dialect", cfg.Dialect,
		"version", cfg.Version.String(),
		"batch_size", cfg.BatchSize,
		"capability_overrides", cfg.overrideCount(),
	)
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Dialect == "" {
		return fmt.Errorf("%w: dialect is required", ErrInvalid)
	}
	if _, ok := dialects.Canonical(cfg.Dialect); !ok {
		return fmt.Errorf("%w: unknown dialect %q", ErrInvalid, cfg.Dialect)
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must not be negative", ErrInvalid)
	}
	if cfg.Cache.Capacity < 0 {
		return fmt.Errorf("%w: statement_cache.capacity must not be negative", ErrInvalid)
	}
	if k := cfg.Capabilities.Kind; k != 0 && k != yaml.MappingNode {
		return fmt.Errorf("%w: capabilities must be a mapping", ErrInvalid)
	}
	if _, err := parseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, cfg.Logging.Format)
	}
	if _, err := security.ParseAuditLevel(cfg.Security.Audit); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) overrideCount() int {
	if c.Capabilities.Kind != yaml.MappingNode {
		return 0
	}
	return len(c.Capabilities.Content) / 2
}

// Options returns the dialect options described by the configuration.
func (c *Config) Options() []dialects.Option {
	var opts []dialects.Option
	if c.BatchSize > 0 {
		opts = append(opts, dialects.WithBatchSize(c.BatchSize))
	}
	if c.Sequences.Emulate {
		opts = append(opts, dialects.WithSequenceEmulation())
	}
	if c.overrideCount() > 0 {
		node := c.Capabilities
		opts = append(opts, dialects.WithCapabilities(func(caps *dialects.Capabilities) error {
			return overlay(&node, caps)
		}))
	}
	return opts
}

// overlay decodes the override mapping onto caps; absent keys keep their
// vendor values.
func overlay(node *yaml.Node, caps *dialects.Capabilities) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(caps)
}

// NewDialect builds the configured dialect.
func (c *Config) NewDialect() (*dialects.Dialect, error) {
	return dialects.Lookup(c.Dialect, c.Version, c.Options()...)
}

// Logger builds a logger writing to w at the configured level and format.
func (c *Config) Logger(w io.Writer) logger.Logger {
	return logger.NewSlogAdapter(c.Slog(w))
}

// Slog builds the *slog.Logger behind Logger; the auditor logs through it
// directly.
func (c *Config) Slog(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Logging.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Sanitizer returns a sanitizer for the configured sensitive fields, or the
// default field set when none are listed.
func (c *Config) Sanitizer() *logger.Sanitizer {
	return logger.NewSanitizer(c.Logging.SensitiveFields)
}

// Validator returns the fragment validator.
func (c *Config) Validator() *security.Validator {
	return security.NewValidator(
		security.WithStrict(c.Security.Strict),
		security.WithPatterns(c.Security.Patterns...),
	)
}

// Auditor returns an auditor logging through l at the configured level.
func (c *Config) Auditor(l *slog.Logger) *security.Auditor {
	level, _ := security.ParseAuditLevel(c.Security.Audit)
	return security.NewAuditor(l, level)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}
