// Package logging provides component loggers and context-scoped log fields.
package logging

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger tagged with a component identifier.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type contextKey string

const (
	ownerIDKey contextKey = "owner_id"
	viewIDKey  contextKey = "view_id"
)

// WithOwnerID adds an owner ID to the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// WithViewID adds a view ID to the context.
func WithViewID(ctx context.Context, viewID string) context.Context {
	return context.WithValue(ctx, viewIDKey, viewID)
}

// GetOwnerID retrieves the owner ID from the context.
// Returns empty string if not present.
func GetOwnerID(ctx context.Context) string {
	if id, ok := ctx.Value(ownerIDKey).(string); ok {
		return id
	}
	return ""
}

// GetViewID retrieves the view ID from the context.
// Returns empty string if not present.
func GetViewID(ctx context.Context) string {
	if id, ok := ctx.Value(viewIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextHook extracts owner_id and view_id from context and adds them
// to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if ownerID := GetOwnerID(ctx); ownerID != "" {
		e.Str("owner_id", ownerID)
	}

	if viewID := GetViewID(ctx); viewID != "" {
		e.Str("view_id", viewID)
	}
}
