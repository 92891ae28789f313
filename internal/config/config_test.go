package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/logger"
	"github.com/coregx/sqldialect/internal/security"
)

const fullConfig = `
dialect: postgresql
version: "15.2"
batch_size: 50
capabilities:
  nulls_ordering: false
  quote: bracket
  supports_lock_timeouts: true
logging:
  level: debug
  format: json
  sensitive_fields: [password, token]
security:
  strict: true
  audit: writes
statement_cache:
  capacity: 32
`

func newJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Dialect)
	assert.Equal(t, dialects.V(15, 2), cfg.Version)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 3, cfg.overrideCount())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"password", "token"}, cfg.Logging.SensitiveFields)
	assert.True(t, cfg.Security.Strict)
	assert.Equal(t, 32, cfg.Cache.Capacity)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", "empty document"},
		{"missing_dialect", "batch_size: 10", "dialect is required"},
		{"unknown_dialect", "dialect: informix", `unknown dialect "informix"`},
		{"unknown_key", "dialect: mysql\nbatchsize: 10", "field batchsize not found"},
		{"negative_batch", "dialect: mysql\nbatch_size: -1", "batch_size"},
		{"bad_version", "dialect: mysql\nversion: latest", "invalid version"},
		{"capabilities_list", "dialect: mysql\ncapabilities: [a]", "capabilities must be a mapping"},
		{"bad_level", "dialect: mysql\nlogging:\n  level: trace", `unknown log level "trace"`},
		{"bad_format", "dialect: mysql\nlogging:\n  format: xml", `unknown log format "xml"`},
		{"bad_audit", "dialect: mysql\nsecurity:\n  audit: verbose", `unknown audit level "verbose"`},
		{"negative_cache", "dialect: mysql\nstatement_cache:\n  capacity: -5", "capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqldialect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))

	var buf bytes.Buffer
	cfg, err := Load(path, WithLogger(logger.NewSlogAdapter(newJSONLogger(&buf))))
	require.NoError(t, err)
	assert.Equal(t, "postgresql", cfg.Dialect)
	assert.Contains(t, buf.String(), "configuration loaded")
	assert.Contains(t, buf.String(), `"capability_overrides":3`)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Dialect(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	d, err := cfg.NewDialect()
	require.NoError(t, err)
	assert.Equal(t, "postgresql 15.2.0", d.String())
	assert.Equal(t, 50, d.DefaultBatchSize())

	caps := d.Capabilities()
	assert.False(t, caps.NullsOrdering)
	assert.True(t, caps.LockTimeouts)
	assert.Equal(t, dialects.QuoteBracket, caps.Quote)
	assert.Equal(t, "[users]", d.QuoteIdentifier("users"))

	// Keys absent from the overlay keep the vendor values.
	vendor, err := dialects.Lookup("postgresql", dialects.V(15, 2))
	require.NoError(t, err)
	assert.Equal(t, vendor.Capabilities().Placeholders, caps.Placeholders)
	assert.Equal(t, vendor.Capabilities().Conflict, caps.Conflict)
}

func TestConfig_DialectDefaults(t *testing.T) {
	cfg, err := Parse([]byte("dialect: mssql"))
	require.NoError(t, err)

	d, err := cfg.NewDialect()
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", d.Name())
	assert.Equal(t, dialects.DefaultBatchSize, d.DefaultBatchSize())
}

func TestConfig_CapabilityOverlayErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown_capability", "dialect: h2\ncapabilities:\n  teleport: true"},
		{"bad_enum", "dialect: h2\ncapabilities:\n  hints: telepathy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = cfg.NewDialect()
			require.Error(t, err)
			assert.ErrorIs(t, err, dialects.ErrConfiguration)
		})
	}
}

func TestConfig_SequenceEmulation(t *testing.T) {
	plain, err := Parse([]byte("dialect: iris"))
	require.NoError(t, err)
	d, err := plain.NewDialect()
	require.NoError(t, err)
	assert.False(t, d.Sequences().Supported)
	_, err = d.NextSequenceValue("order_seq")
	assert.ErrorIs(t, err, dialects.ErrUnsupported)

	emulated, err := Parse([]byte("dialect: iris\nsequences:\n  emulate: true"))
	require.NoError(t, err)
	d, err = emulated.NewDialect()
	require.NoError(t, err)
	assert.True(t, d.Sequences().Supported)
	next, err := d.NextSequenceValue("order_seq")
	require.NoError(t, err)
	assert.Contains(t, next, "InterSystems.Sequences_GetNext('order_seq')")
}

func TestConfig_Logger(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantDebug bool
		wantJSON  bool
	}{
		{"default_text_info", "dialect: h2", false, false},
		{"json_debug", "dialect: h2\nlogging:\n  level: debug\n  format: json", true, true},
		{"warn_hides_info", "dialect: h2\nlogging:\n  level: warn", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			var buf bytes.Buffer
			l := cfg.Logger(&buf)
			l.Debug("debug line")
			l.Warn("warn line", "dialect", "h2")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Contains(t, out, "warn line")
			if tt.wantJSON {
				first, _, _ := bytes.Cut(buf.Bytes(), []byte("\n"))
				assert.True(t, json.Valid(first), "json handler expected, got %s", first)
			} else {
				assert.Contains(t, out, "level=WARN")
			}
		})
	}
}

func TestConfig_Sanitizer(t *testing.T) {
	cfg, err := Parse([]byte("dialect: h2\nlogging:\n  sensitive_fields: [pin]"))
	require.NoError(t, err)
	s := cfg.Sanitizer()
	assert.True(t, s.IsSensitive("pin"))
	assert.False(t, s.IsSensitive("password"), "configured fields replace the defaults")

	cfg, err = Parse([]byte("dialect: h2"))
	require.NoError(t, err)
	assert.True(t, cfg.Sanitizer().IsSensitive("password"))
}

func TestConfig_Security(t *testing.T) {
	cfg, err := Parse([]byte(fullConfig))
	require.NoError(t, err)

	v := cfg.Validator()
	assert.True(t, v.Strict())
	assert.ErrorIs(t, v.ValidateFragment("a = 1 or b = 2"), security.ErrDangerousFragment)

	var buf bytes.Buffer
	auditor := cfg.Auditor(newJSONLogger(&buf))
	auditor.Record(t.Context(), security.Statement{Operation: "SELECT", SQL: "select 1"}, 0, nil, 0)
	assert.Zero(t, buf.Len(), "audit level writes skips reads")
	auditor.Record(t.Context(), security.Statement{Operation: "DELETE", SQL: "delete from t"}, 2, nil, 0)
	assert.Contains(t, buf.String(), "audit_event")
}
