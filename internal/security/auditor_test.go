package security

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestAuditor_Record(t *testing.T) {
	tests := []struct {
		name    string
		level   AuditLevel
		st      Statement
		rows    int64
		err     error
		wantLog bool
	}{
		{
			name:    "write_audit_writes",
			level:   AuditWrites,
			st:      Statement{Dialect: "postgresql 16", Operation: "INSERT", SQL: "insert into users (name) values ($1)", Tables: []string{"users"}, Args: []any{"Alice"}},
			rows:    1,
			wantLog: true,
		},
		{
			name:  "read_audit_writes",
			level: AuditWrites,
			st:    Statement{Operation: "SELECT", SQL: "select * from users"},
		},
		{
			name:    "read_audit_reads",
			level:   AuditReads,
			st:      Statement{Operation: "SELECT", SQL: "select * from users where id = ?", Args: []any{123}},
			wantLog: true,
		},
		{
			name:    "failed_update",
			level:   AuditWrites,
			st:      Statement{Operation: "UPDATE", SQL: "update users set status = ? where id = ?", Args: []any{1, 999}},
			err:     errors.New("record not found"),
			wantLog: true,
		},
		{
			name:  "audit_none",
			level: AuditNone,
			st:    Statement{Operation: "DELETE", SQL: "delete from users where id = ?", Args: []any{1}},
			rows:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			NewAuditor(logger, tt.level).Record(context.Background(), tt.st, tt.rows, tt.err, 10*time.Millisecond)

			logOutput := buf.String()
			if tt.wantLog && logOutput == "" {
				t.Fatal("Expected audit log but got none")
			}
			if !tt.wantLog {
				if logOutput != "" {
					t.Errorf("Expected no audit log but got: %s", logOutput)
				}
				return
			}
			if !strings.Contains(logOutput, tt.st.Operation) || !strings.Contains(logOutput, tt.st.SQL) {
				t.Errorf("Log missing operation or sql: %s", logOutput)
			}
			if tt.err != nil && !strings.Contains(logOutput, `"level":"WARN"`) {
				t.Errorf("Failed statement should log at WARN: %s", logOutput)
			}
		})
	}
}

func TestAuditor_EventContent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	auditor := NewAuditor(logger, AuditAll)

	ctx := WithUser(context.Background(), "alice")
	ctx = WithClientIP(ctx, "10.0.0.7")
	ctx = WithRequestID(ctx, "req-42")

	auditor.Record(ctx, Statement{
		Dialect:   "mysql 8.0.0",
		Operation: "DELETE",
		SQL:       "delete from sessions where user_id = ?",
		Tables:    []string{"sessions"},
		Args:      []any{"secret-token"},
	}, 3, nil, 5*time.Millisecond)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit entry is not JSON: %v", err)
	}
	checks := map[string]any{
		"user":          "alice",
		"client_ip":     "10.0.0.7",
		"request_id":    "req-42",
		"dialect":       "mysql 8.0.0",
		"affected_rows": float64(3),
		"success":       true,
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
	if strings.Contains(buf.String(), "secret-token") {
		t.Error("parameter values must only appear hashed")
	}
	if hash, _ := entry["params_hash"].(string); len(hash) != 64 {
		t.Errorf("params_hash = %q, want a SHA256 hex digest", hash)
	}
}

func TestAuditor_RecordRejected(t *testing.T) {
	var buf bytes.Buffer
	auditor := NewAuditor(slog.New(slog.NewJSONHandler(&buf, nil)), AuditWrites)

	auditor.RecordRejected(context.Background(), "params_blocked",
		Statement{SQL: "insert into t (a) values (?)"}, ErrSuspiciousParam)

	out := buf.String()
	if !strings.Contains(out, "security_event") || !strings.Contains(out, "params_blocked") {
		t.Errorf("unexpected security event: %s", out)
	}

	buf.Reset()
	NewAuditor(slog.New(slog.NewJSONHandler(&buf, nil)), AuditNone).
		RecordRejected(context.Background(), "params_blocked", Statement{}, ErrSuspiciousParam)
	if buf.Len() != 0 {
		t.Errorf("AuditNone logged %s", buf.String())
	}
}

func TestParseAuditLevel(t *testing.T) {
	tests := []struct {
		in   string
		want AuditLevel
	}{
		{"", AuditNone},
		{"none", AuditNone},
		{"Writes", AuditWrites},
		{" reads ", AuditReads},
		{"all", AuditAll},
	}
	for _, tt := range tests {
		got, err := ParseAuditLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseAuditLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseAuditLevel("verbose"); err == nil {
		t.Error("ParseAuditLevel(verbose) should fail")
	}
}

func TestHashParams(t *testing.T) {
	a := hashParams([]any{"x", 1})
	if a != hashParams([]any{"x", 1}) {
		t.Error("hash is not deterministic")
	}
	if a == hashParams([]any{"x", 2}) {
		t.Error("different values hash equal")
	}
	if hashParams(nil) != "" {
		t.Error("empty params should hash to empty string")
	}
}
