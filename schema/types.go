package schema

// UserID identifies a connected console user.
type UserID string

// SessionID identifies a single SSH session of a user.
type SessionID string

// ThemeName identifies a console color theme.
type ThemeName string
