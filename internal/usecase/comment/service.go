package comment

import (
	"context"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/Guyuepp/go-comment-engine/internal/repository"
	"github.com/Guyuepp/go-comment-engine/internal/validator"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// service is the transport-agnostic engine. It is stateless between requests
// and safe for concurrent use; every operation follows the same skeleton:
// resolve actor (and role when required), validate input, authorize, call
// storage, map the result.
type service struct {
	storage     domain.CommentStorage
	resolver    domain.AuthResolver
	invalidator domain.CacheInvalidator
}

var _ domain.CommentUsecase = (*service)(nil)

// NewService wires the engine. invalidator may be nil when no cache sits in
// front of the storage backend.
func NewService(storage domain.CommentStorage, resolver domain.AuthResolver, invalidator domain.CacheInvalidator) *service {
	return &service{
		storage:     storage,
		resolver:    resolver,
		invalidator: invalidator,
	}
}

func (s *service) invalidate(page string) {
	if s.invalidator != nil {
		s.invalidator.Send(page)
	}
}

// List returns a window of comments. Anonymous reads are allowed; an
// authenticated caller additionally gets its own rating per row.
func (s *service) List(ctx context.Context, auth *domain.AuthInfo, in domain.ListInput) ([]domain.Comment, error) {
	if in.Sort == "" {
		in.Sort = string(domain.SortNewest)
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Limit == 0 {
		in.Limit = DefaultListLimit
	}

	opts := domain.ListOptions{
		Page:  in.Page,
		Sort:  domain.Sort(in.Sort),
		Limit: in.Limit,
		Auth:  auth,
	}
	if in.Thread != "" {
		opts.Thread = &in.Thread
	}
	var err error
	if opts.Before, err = decodeBound("before", in.Before); err != nil {
		return nil, err
	}
	if opts.After, err = decodeBound("after", in.After); err != nil {
		return nil, err
	}

	res, err := s.storage.GetComments(ctx, opts)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []domain.Comment{}
	}
	return res, nil
}

func decodeBound(field, cursor string) (*time.Time, error) {
	if cursor == "" {
		return nil, nil
	}
	t, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewValidationError(field, domain.KindBadField, "is not a valid cursor")
	}
	return &t, nil
}

// ResolveAuth returns the caller's session and moderation role, if any.
func (s *service) ResolveAuth(ctx context.Context, auth *domain.AuthInfo, page string) (*domain.Session, error) {
	session, err := s.resolver.Resolve(ctx, auth, page)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// Post stores a new comment attributed to the caller.
func (s *service) Post(ctx context.Context, auth *domain.AuthInfo, in domain.PostInput) (*domain.Comment, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := validator.ValidateContent(in.Content); err != nil {
		return nil, err
	}

	var thread *string
	if in.Thread != "" {
		thread = &in.Thread
	}
	res, err := s.storage.PostComment(ctx, *auth, in.Page, thread, in.Content)
	if err != nil {
		return nil, err
	}
	s.invalidate(in.Page)
	return res, nil
}

// Update replaces a comment's content. Only the author may update; the
// ownership predicate inside the storage write enforces it a second time.
func (s *service) Update(ctx context.Context, auth *domain.AuthInfo, in domain.UpdateInput) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	if err := validator.ValidateStruct(in); err != nil {
		return err
	}
	if err := validator.ValidateContent(in.Content); err != nil {
		return err
	}

	author, err := s.storage.GetCommentAuthor(ctx, in.ID)
	if err != nil {
		return err
	}
	if author != auth.ID {
		return domain.ErrUnauthorized
	}

	if err := s.storage.UpdateComment(ctx, in.ID, *auth, in.Page, in.Content); err != nil {
		return err
	}
	s.invalidate(in.Page)
	return nil
}

// Delete removes a comment and its direct replies. Allowed for the author,
// or for a caller whose resolved role carries CanDelete.
func (s *service) Delete(ctx context.Context, auth *domain.AuthInfo, page, id string) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}

	author, err := s.storage.GetCommentAuthor(ctx, id)
	if err != nil {
		return err
	}
	if author != auth.ID {
		session, err := s.resolver.Resolve(ctx, auth, page)
		if err != nil {
			return err
		}
		if session == nil || session.Role == nil || !session.Role.CanDelete {
			return domain.ErrUnauthorized
		}
		logrus.Infof("comment %s on page %s deleted by moderator %s", id, page, auth.ID)
	}

	if err := s.storage.DeleteComment(ctx, id, *auth, page); err != nil {
		return err
	}
	s.invalidate(page)
	return nil
}

// SetRate upserts the caller's rating on a comment.
func (s *service) SetRate(ctx context.Context, auth *domain.AuthInfo, in domain.RateInput) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	if err := validator.ValidateStruct(in); err != nil {
		return err
	}
	if err := s.storage.SetRate(ctx, in.ID, *auth, in.Page, *in.Like); err != nil {
		return err
	}
	s.invalidate(in.Page)
	return nil
}

// DeleteRate removes the caller's own rating. Always permitted.
func (s *service) DeleteRate(ctx context.Context, auth *domain.AuthInfo, page, id string) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	if err := s.storage.DeleteRate(ctx, id, *auth, page); err != nil {
		return err
	}
	s.invalidate(page)
	return nil
}
