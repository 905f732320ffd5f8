package domain

import (
	"context"
	"time"
)

// Sort direction for comment listing.
type Sort string

const (
	SortOldest Sort = "oldest"
	SortNewest Sort = "newest"
)

// Comment domain model. IDs are opaque strings assigned by the storage
// backend (uuid in MySQL, ObjectID hex in Mongo).
type Comment struct {
	ID        string       `json:"id"`
	Page      string       `json:"page"`
	ThreadID  *string      `json:"thread,omitempty"`
	Author    string       `json:"author"`
	Content   *ContentNode `json:"content"`
	CreatedAt time.Time    `json:"timestamp"`

	// Aggregates, derived by the storage layer per query.
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Replies  int64 `json:"replies"`
	// Liked is the calling user's own rating: true/false, or nil when the
	// caller is anonymous or has not rated this comment.
	Liked *bool `json:"liked,omitempty"`
}

// ListOptions filters and windows a comment listing.
type ListOptions struct {
	Page string
	// Thread selects direct replies of the given comment; nil selects
	// top-level comments only.
	Thread *string
	Sort   Sort
	// Before/After are exclusive bounds on CreatedAt, used for cursor
	// pagination.
	Before *time.Time
	After  *time.Time
	Limit  int
	// Auth, when present, makes the backend resolve Liked for each row.
	Auth *AuthInfo
}

// CommentUsecase 业务逻辑接口
type CommentUsecase interface {
	List(ctx context.Context, auth *AuthInfo, in ListInput) ([]Comment, error)
	ResolveAuth(ctx context.Context, auth *AuthInfo, page string) (*Session, error)
	Post(ctx context.Context, auth *AuthInfo, in PostInput) (*Comment, error)
	Update(ctx context.Context, auth *AuthInfo, in UpdateInput) error
	Delete(ctx context.Context, auth *AuthInfo, page, id string) error
	SetRate(ctx context.Context, auth *AuthInfo, in RateInput) error
	DeleteRate(ctx context.Context, auth *AuthInfo, page, id string) error
}

// ListInput is the raw listing request as extracted by a transport binding,
// validated by the usecase before it reaches storage.
type ListInput struct {
	Page   string `validate:"required"`
	Thread string
	Sort   string `validate:"omitempty,oneof=oldest newest"`
	Before string
	After  string
	Limit  int `validate:"min=0,max=50"`
}

// PostInput carries a new comment.
type PostInput struct {
	Page    string       `validate:"required"`
	Thread  string       // optional parent comment id
	Content *ContentNode `validate:"required"`
}

// UpdateInput replaces a comment's content wholesale.
type UpdateInput struct {
	Page    string       `validate:"required"`
	ID      string       `validate:"required"`
	Content *ContentNode `validate:"required"`
}

// RateInput sets the caller's rating on a comment.
type RateInput struct {
	Page string `validate:"required"`
	ID   string `validate:"required"`
	Like *bool  `validate:"required"`
}

// CommentStorage is the persistence seam. Every backend must implement these
// semantics identically; the usecase never inspects or branches on the
// concrete implementation.
type CommentStorage interface {
	// GetComments retrieves comments for opts.Page. With opts.Thread set it
	// returns only direct replies of that comment, otherwise only top-level
	// comments. Before/After are exclusive CreatedAt bounds. Results are
	// ordered strictly by CreatedAt (ascending for oldest, descending for
	// newest), ties broken by id ascending, and capped at opts.Limit.
	// Each row carries its like/dislike/reply counts and, when opts.Auth is
	// set, the caller's own rating in Liked.
	GetComments(ctx context.Context, opts ListOptions) ([]Comment, error)

	// PostComment stores a new comment attributed to auth.ID. The backend
	// assigns the id and the creation timestamp; aggregates start at zero.
	PostComment(ctx context.Context, auth AuthInfo, page string, thread *string, content *ContentNode) (*Comment, error)

	// UpdateComment replaces the content of the comment matching
	// id AND author=auth.ID AND page. A non-match is a no-op, not an error;
	// ownership is enforced by the query predicate itself so there is no
	// read-then-write race.
	UpdateComment(ctx context.Context, id string, auth AuthInfo, page string, content *ContentNode) error

	// DeleteComment removes the comment and every comment whose ThreadID
	// references it. Authorization has already been granted by the usecase
	// when this is called.
	DeleteComment(ctx context.Context, id string, auth AuthInfo, page string) error

	// SetRate upserts the caller's rating. The write must be atomic at the
	// (comment, user) unique key: insert when absent, overwrite otherwise.
	// Rating a comment that does not exist returns ErrNotFound; a comment
	// deleted concurrently with the upsert may still leave an orphaned
	// rating, which aggregates never count.
	SetRate(ctx context.Context, id string, auth AuthInfo, page string, like bool) error

	// DeleteRate removes the caller's rating; a no-op when absent.
	DeleteRate(ctx context.Context, id string, auth AuthInfo, page string) error

	// GetCommentAuthor returns the author user id of a comment, or
	// ErrNotFound.
	GetCommentAuthor(ctx context.Context, id string) (string, error)

	// GetRole resolves the moderation role of auth on page. A nil Role with
	// nil error means the user has no role there.
	GetRole(ctx context.Context, auth AuthInfo, page string) (*Role, error)
}
