package auth

import (
	"context"
	"fmt"

	"github.com/Guyuepp/go-comment-engine/domain"
)

// RoleStorage is the slice of the storage contract the resolver needs under
// database mode.
type RoleStorage interface {
	GetRole(ctx context.Context, auth domain.AuthInfo, page string) (*domain.Role, error)
}

type resolver struct {
	resolve func(ctx context.Context, auth *domain.AuthInfo, page string) (*domain.Session, error)
}

var _ domain.AuthResolver = (*resolver)(nil)

// NewResolver builds an AuthResolver for the given mode. The strategy is
// picked here once and never re-branched per request. A misconfigured mode
// (custom mode without an accessor, database mode without storage) is a
// construction error, fatal at startup rather than a per-request failure.
func NewResolver(mode domain.AuthMode, storage RoleStorage, withRole domain.SessionWithRoleFunc) (domain.AuthResolver, error) {
	switch mode {
	case domain.AuthModeNone:
		return &resolver{resolve: resolveNone}, nil
	case domain.AuthModeCustom:
		if withRole == nil {
			return nil, fmt.Errorf("auth mode %q requires a session-with-role accessor", mode)
		}
		return &resolver{resolve: func(ctx context.Context, _ *domain.AuthInfo, page string) (*domain.Session, error) {
			return withRole(ctx, page)
		}}, nil
	case domain.AuthModeDatabase:
		if storage == nil {
			return nil, fmt.Errorf("auth mode %q requires role storage", mode)
		}
		return &resolver{resolve: func(ctx context.Context, auth *domain.AuthInfo, page string) (*domain.Session, error) {
			if auth == nil {
				return nil, nil
			}
			role, err := storage.GetRole(ctx, *auth, page)
			if err != nil {
				return nil, err
			}
			return &domain.Session{Auth: *auth, Role: role}, nil
		}}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

func resolveNone(_ context.Context, auth *domain.AuthInfo, _ string) (*domain.Session, error) {
	if auth == nil {
		return nil, nil
	}
	return &domain.Session{Auth: *auth}, nil
}

func (r *resolver) Resolve(ctx context.Context, auth *domain.AuthInfo, page string) (*domain.Session, error) {
	return r.resolve(ctx, auth, page)
}
