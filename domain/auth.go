package domain

import "context"

// AuthInfo is the authenticated actor. Absent (nil) for anonymous requests.
// The engine stores no user records; IDs are opaque to it and owned by the
// host application.
type AuthInfo struct {
	ID string `json:"id"`
}

// Role is a named moderation capability set resolved per (user, page). It is
// used only for moderation authorization, never for ownership checks.
type Role struct {
	Name      string `json:"name"`
	CanDelete bool   `json:"canDelete"`
}

// Session is a resolved actor together with its moderation role, if any.
type Session struct {
	Auth AuthInfo `json:"auth"`
	Role *Role    `json:"role,omitempty"`
}

// AuthMode selects how moderation roles are resolved. Picked once at
// construction, never re-branched per request.
type AuthMode string

const (
	// AuthModeNone never resolves a role; only ownership checks apply.
	AuthModeNone AuthMode = "none"
	// AuthModeCustom trusts a session-with-role accessor supplied by the
	// transport layer.
	AuthModeCustom AuthMode = "auth"
	// AuthModeDatabase looks the role up through CommentStorage.GetRole.
	AuthModeDatabase AuthMode = "database"
)

// SessionWithRoleFunc is supplied by the transport layer under
// AuthModeCustom. It returns the caller's session including the role, or nil
// for anonymous.
type SessionWithRoleFunc func(ctx context.Context, page string) (*Session, error)

// AuthResolver produces the caller's session for a page.
type AuthResolver interface {
	Resolve(ctx context.Context, auth *AuthInfo, page string) (*Session, error)
}
