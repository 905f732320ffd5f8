package domain

import "context"

// CacheInvalidator asynchronously drops cached listings for pages that were
// written to. Send must never block the write path.
type CacheInvalidator interface {
	Start(ctx context.Context)
	Send(page string)
}
