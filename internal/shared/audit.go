package shared

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// AuditLog represents a single store mutation worth keeping a trail of.
type AuditLog struct {
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records to slog and keeps the most recent entries in memory.
type AuditLogger struct {
	logger  *slog.Logger
	mu      sync.Mutex
	entries []AuditLog
	limit   int
}

// NewAuditLogger returns a new AuditLogger retaining up to limit entries.
func NewAuditLogger(logger *slog.Logger, limit int) *AuditLogger {
	if limit <= 0 {
		limit = 500
	}
	return &AuditLogger{logger: logger, limit: limit}
}

// Record stores the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	l.mu.Lock()
	l.entries = append(l.entries, log)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
	l.mu.Unlock()
	if l.logger != nil {
		l.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
			slog.String("action", log.Action),
			slog.String("entity", log.Entity),
			slog.String("entity_id", log.EntityID),
			slog.Any("meta", log.Meta),
		)
	}
	return nil
}

// Entries returns a copy of the retained entries, oldest first.
func (l *AuditLogger) Entries() []AuditLog {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditLog, len(l.entries))
	copy(out, l.entries)
	return out
}
