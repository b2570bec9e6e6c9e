package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/schema"
)

type contextKey int

const (
	userKey contextKey = iota
	sessionKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithUser annotates the logger with the user id if present.
func WithUser(ctx context.Context, userID schema.UserID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if userID != "" {
		if current, ok := ctx.Value(userKey).(schema.UserID); ok && current == userID {
			return log
		}
		log = log.With("user", userID)
	}
	return log
}

// WithUserSession annotates the logger with user and session identifiers.
func WithUserSession(ctx context.Context, userID schema.UserID, sessionID schema.SessionID) pslog.Logger {
	log := WithUser(ctx, userID)
	if sessionID != "" {
		if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
			return log
		}
		log = log.With("session", sessionID)
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithTerminal annotates the logger with the terminal size.
func WithTerminal(log pslog.Logger, width, height int) pslog.Logger {
	if width > 0 && height > 0 {
		log = log.With("cols", width, "rows", height)
	}
	return log
}

// ContextWithUser stores the user marker on the context for log de-duplication.
func ContextWithUser(ctx context.Context, userID schema.UserID) context.Context {
	if ctx == nil || userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, userID)
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithUserLogger attaches the logger and user marker to the context.
func ContextWithUserLogger(ctx context.Context, log pslog.Logger, userID schema.UserID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithUser(ctx, userID)
}

// ContextWithUserSessionLogger attaches the logger and user/session markers to the context.
func ContextWithUserSessionLogger(ctx context.Context, log pslog.Logger, userID schema.UserID, sessionID schema.SessionID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ContextWithUser(ctx, userID), sessionID)
}
