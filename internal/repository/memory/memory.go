package memory

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
	"github.com/google/uuid"
)

type ratingKey struct {
	commentID string
	userID    string
}

type roleKey struct {
	userID string
	page   string
}

// Storage is an in-memory comment backend guarded by a single mutex. Used by
// the engine tests and for running the server without external services.
type Storage struct {
	mu       sync.RWMutex
	comments map[string]*domain.Comment
	ratings  map[ratingKey]domain.Rating
	roles    map[roleKey]domain.Role
	clock    func() time.Time
}

var _ domain.CommentStorage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		comments: make(map[string]*domain.Comment),
		ratings:  make(map[ratingKey]domain.Rating),
		roles:    make(map[roleKey]domain.Role),
		clock:    time.Now,
	}
}

// SetClock overrides the timestamp source, for deterministic tests.
func (s *Storage) SetClock(clock func() time.Time) {
	s.clock = clock
}

// SeedRole grants a moderation role, the moral equivalent of a roles table
// row in the database backends.
func (s *Storage) SeedRole(userID, page string, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[roleKey{userID: userID, page: page}] = role
}

func (s *Storage) GetComments(ctx context.Context, opts domain.ListOptions) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []domain.Comment
	for _, c := range s.comments {
		if c.Page != opts.Page {
			continue
		}
		if opts.Thread != nil {
			if c.ThreadID == nil || *c.ThreadID != *opts.Thread {
				continue
			}
		} else if c.ThreadID != nil {
			continue
		}
		if opts.Before != nil && !c.CreatedAt.Before(*opts.Before) {
			continue
		}
		if opts.After != nil && !c.CreatedAt.After(*opts.After) {
			continue
		}
		res = append(res, s.hydrate(*c, opts.Auth))
	}

	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		if opts.Sort == domain.SortOldest {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if opts.Limit > 0 && len(res) > opts.Limit {
		res = res[:opts.Limit]
	}
	return res, nil
}

// hydrate fills the derived aggregates under the read lock.
func (s *Storage) hydrate(c domain.Comment, auth *domain.AuthInfo) domain.Comment {
	for key, r := range s.ratings {
		if key.commentID != c.ID {
			continue
		}
		if r.Like {
			c.Likes++
		} else {
			c.Dislikes++
		}
	}
	for _, other := range s.comments {
		if other.ThreadID != nil && *other.ThreadID == c.ID {
			c.Replies++
		}
	}
	if auth != nil {
		if r, ok := s.ratings[ratingKey{commentID: c.ID, userID: auth.ID}]; ok {
			liked := r.Like
			c.Liked = &liked
		}
	}
	return c
}

func (s *Storage) PostComment(ctx context.Context, auth domain.AuthInfo, page string, thread *string, content *domain.ContentNode) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if thread != nil {
		parent, ok := s.comments[*thread]
		if !ok || parent.Page != page {
			return nil, domain.ErrNotFound
		}
		if parent.ThreadID != nil {
			return nil, &domain.StatusError{Status: http.StatusBadRequest, Message: "thread must reference a top-level comment"}
		}
	}

	c := &domain.Comment{
		ID:        uuid.NewString(),
		Page:      page,
		ThreadID:  thread,
		Author:    auth.ID,
		Content:   content,
		CreatedAt: s.clock(),
	}
	s.comments[c.ID] = c

	out := *c
	return &out, nil
}

func (s *Storage) UpdateComment(ctx context.Context, id string, auth domain.AuthInfo, page string, content *domain.ContentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok || c.Author != auth.ID || c.Page != page {
		// ownership is part of the match predicate; a miss is a no-op
		return nil
	}
	c.Content = content
	return nil
}

func (s *Storage) DeleteComment(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := []string{id}
	for _, c := range s.comments {
		if c.ThreadID != nil && *c.ThreadID == id {
			doomed = append(doomed, c.ID)
		}
	}
	for _, cid := range doomed {
		delete(s.comments, cid)
		for key := range s.ratings {
			if key.commentID == cid {
				delete(s.ratings, key)
			}
		}
	}
	return nil
}

func (s *Storage) SetRate(ctx context.Context, id string, auth domain.AuthInfo, page string, like bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return domain.ErrNotFound
	}
	s.ratings[ratingKey{commentID: id, userID: auth.ID}] = domain.Rating{
		CommentID: id,
		UserID:    auth.ID,
		Like:      like,
		CreatedAt: s.clock(),
	}
	return nil
}

func (s *Storage) DeleteRate(ctx context.Context, id string, auth domain.AuthInfo, page string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ratings, ratingKey{commentID: id, userID: auth.ID})
	return nil
}

func (s *Storage) GetCommentAuthor(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return c.Author, nil
}

func (s *Storage) GetRole(ctx context.Context, auth domain.AuthInfo, page string) (*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if role, ok := s.roles[roleKey{userID: auth.ID, page: page}]; ok {
		out := role
		return &out, nil
	}
	return nil, nil
}
