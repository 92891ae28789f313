package exec

import (
	"context"
	"time"
)

// QueryEvent describes one executed statement. It is passed to QueryHook
// callbacks for logging, metrics or debugging.
type QueryEvent struct {
	// Dialect is the dialect and version the statement was rendered for.
	Dialect string
	// SQL is the translated statement text.
	SQL string
	// Args are the bound driver values in placeholder order.
	Args []any
	// Duration covers prepare and execution.
	Duration time.Duration
	// RowsAffected is set for INSERT, UPDATE and DELETE.
	RowsAffected int64
	// Error is the converted error, nil on success.
	Error error
	// Operation is the SQL verb, e.g. "SELECT".
	Operation string
	// FollowOnLocking reports that requested row locks were left out of SQL.
	FollowOnLocking bool
	// Cached reports whether the prepared statement came from the cache.
	Cached bool
}

// QueryHook is a callback invoked after each statement execution.
//
// Example:
//
//	ex := exec.New(db, tr, exec.WithQueryHook(func(ctx context.Context, e exec.QueryEvent) {
//	    slog.Info("statement", "sql", e.SQL, "duration", e.Duration, "err", e.Error)
//	}))
type QueryHook func(ctx context.Context, event QueryEvent)

func (e *Executor) invokeHook(ctx context.Context, event QueryEvent) {
	if e.hook != nil {
		e.hook(ctx, event)
	}
}
