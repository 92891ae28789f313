package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AuditLevel defines the level of audit logging.
type AuditLevel int

const (
	// AuditNone disables audit logging.
	AuditNone AuditLevel = iota
	// AuditWrites logs only write operations (INSERT, UPDATE, DELETE).
	AuditWrites
	// AuditReads logs read operations (SELECT) in addition to writes.
	AuditReads
	// AuditAll logs every statement, including rejected ones.
	AuditAll
)

// ParseAuditLevel parses "none", "writes", "reads" or "all".
func ParseAuditLevel(s string) (AuditLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AuditNone, nil
	case "writes":
		return AuditWrites, nil
	case "reads":
		return AuditReads, nil
	case "all":
		return AuditAll, nil
	}
	return AuditNone, fmt.Errorf("security: unknown audit level %q", s)
}

// Statement describes an executed statement.
type Statement struct {
	Dialect   string
	Operation string
	SQL       string
	Tables    []string
	Args      []any
}

// AuditEvent represents a single database operation for audit logging.
type AuditEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	User         string    `json:"user,omitempty"`
	Dialect      string    `json:"dialect"`
	Operation    string    `json:"operation"`
	Tables       []string  `json:"tables,omitempty"`
	AffectedRows int64     `json:"affected_rows"`
	SQL          string    `json:"sql"`
	ParamsHash   string    `json:"params_hash,omitempty"` // SHA256 of the bound values
	ClientIP     string    `json:"client_ip,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Duration     int64     `json:"duration_ms,omitempty"`
}

// Auditor handles audit logging of database operations.
type Auditor struct {
	logger *slog.Logger
	level  AuditLevel
}

// NewAuditor creates a new audit logger.
func NewAuditor(logger *slog.Logger, level AuditLevel) *Auditor {
	return &Auditor{
		logger: logger,
		level:  level,
	}
}

// Record logs an executed statement.
func (a *Auditor) Record(ctx context.Context, st Statement, rows int64, err error, duration time.Duration) {
	if !a.shouldLog(st.Operation) {
		return
	}

	event := a.event(ctx, st)
	event.Success = err == nil
	event.Duration = duration.Milliseconds()
	if err != nil {
		event.Error = err.Error()
	} else {
		event.AffectedRows = rows
	}
	a.logEvent(event)
}

// RecordRejected logs a statement refused before it reached the database.
func (a *Auditor) RecordRejected(ctx context.Context, reason string, st Statement, err error) {
	if a.logger == nil || a.level == AuditNone {
		return
	}
	event := a.event(ctx, st)
	a.logger.Warn("security_event",
		"event_type", reason,
		"timestamp", event.Timestamp,
		"user", event.User,
		"client_ip", event.ClientIP,
		"request_id", event.RequestID,
		"dialect", event.Dialect,
		"sql", event.SQL,
		"error", err.Error(),
	)
}

func (a *Auditor) event(ctx context.Context, st Statement) AuditEvent {
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		Dialect:   st.Dialect,
		Operation: st.Operation,
		Tables:    st.Tables,
		SQL:       st.SQL,
		User:      GetUser(ctx),
		ClientIP:  GetClientIP(ctx),
		RequestID: GetRequestID(ctx),
	}
	if len(st.Args) > 0 {
		event.ParamsHash = hashParams(st.Args)
	}
	return event
}

// shouldLog determines if an operation should be logged based on audit level.
func (a *Auditor) shouldLog(operation string) bool {
	if a.logger == nil {
		return false
	}
	switch a.level {
	case AuditWrites:
		return operation == "INSERT" || operation == "UPDATE" || operation == "DELETE"
	case AuditReads, AuditAll:
		return true
	}
	return false
}

// logEvent writes the audit event to the logger.
func (a *Auditor) logEvent(event AuditEvent) {
	logFunc := a.logger.Info
	if !event.Success {
		logFunc = a.logger.Warn
	}

	logFunc("audit_event",
		"timestamp", event.Timestamp,
		"user", event.User,
		"dialect", event.Dialect,
		"operation", event.Operation,
		"tables", event.Tables,
		"affected_rows", event.AffectedRows,
		"sql", event.SQL,
		"params_hash", event.ParamsHash,
		"client_ip", event.ClientIP,
		"request_id", event.RequestID,
		"success", event.Success,
		"error", event.Error,
		"duration_ms", event.Duration,
	)
}

// hashParams creates a SHA256 hash of parameters for the audit trail.
func hashParams(params []any) string {
	if len(params) == 0 {
		return ""
	}

	h := sha256.New()
	for _, param := range params {
		_, _ = fmt.Fprintf(h, "%v", param) // hash.Hash.Write never returns error
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Context keys for audit metadata
type contextKey string

const (
	userKey      contextKey = "sqldialect:user"
	clientIPKey  contextKey = "sqldialect:client_ip"
	requestIDKey contextKey = "sqldialect:request_id"
)

// WithUser adds user information to the context for audit logging.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithClientIP adds client IP to the context for audit logging.
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, clientIPKey, clientIP)
}

// WithRequestID adds request ID to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetUser retrieves the user from ctx.
func GetUser(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// GetClientIP retrieves the client IP from ctx.
func GetClientIP(ctx context.Context) string {
	clientIP, _ := ctx.Value(clientIPKey).(string)
	return clientIP
}

// GetRequestID retrieves the request ID from ctx.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
