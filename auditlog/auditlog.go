// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/ipinfo"
	"github.com/scvote/councilvote/models"
)

const recordTimeout = 5 * time.Second

// Logger appends admin audit records to the logs collection.
type Logger struct {
	store *docstore.Store
	ip    *ipinfo.Client
}

func NewLogger(store *docstore.Store, ip *ipinfo.Client) *Logger {
	return &Logger{store: store, ip: ip}
}

// Record writes an audit entry in the background. Logging must never slow
// down or fail the admin action it describes, so errors are logged and
// swallowed.
func (l *Logger) Record(action models.AdminAction, target, details, adminIP string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := l.RecordSync(ctx, action, target, details, adminIP); err != nil {
			slog.Warn("audit log write failed", "action", action, "error", err)
		}
	}()
}

// RecordSync writes an audit entry and waits for the store.
func (l *Logger) RecordSync(ctx context.Context, action models.AdminAction, target, details, adminIP string) error {
	if !models.IsValidAction(action) {
		return fmt.Errorf("unknown admin action %q", action)
	}

	if adminIP == "" && l.ip != nil {
		adminIP = l.ip.PublicIP(ctx)
	}

	entry := models.LogEntry{
		Action:    action,
		Target:    target,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AdminIP:   adminIP,
	}

	return l.store.Set(ctx, models.CollectionLogs, uuid.NewString(), toMap(entry))
}

func toMap(entry models.LogEntry) map[string]any {
	m := map[string]any{
		"action":    string(entry.Action),
		"target":    entry.Target,
		"details":   entry.Details,
		"timestamp": entry.Timestamp,
	}
	if entry.AdminIP != "" {
		m["adminIp"] = entry.AdminIP
	}
	return m
}
