package response

import (
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
)

const DateTimeFormat = time.RFC3339Nano

type Comment struct {
	ID        string              `json:"id"`
	Page      string              `json:"page"`
	Thread    *string             `json:"thread,omitempty"`
	Author    string              `json:"author"`
	Content   *domain.ContentNode `json:"content"`
	Timestamp string              `json:"timestamp"`
	Likes     int64               `json:"likes"`
	Dislikes  int64               `json:"dislikes"`
	Replies   int64               `json:"replies"`
	Liked     *bool               `json:"liked,omitempty"`
}

// NewCommentFromDomain: Domain -> Response
func NewCommentFromDomain(c *domain.Comment) Comment {
	return Comment{
		ID:        c.ID,
		Page:      c.Page,
		Thread:    c.ThreadID,
		Author:    c.Author,
		Content:   c.Content,
		Timestamp: c.CreatedAt.Format(DateTimeFormat),
		Likes:     c.Likes,
		Dislikes:  c.Dislikes,
		Replies:   c.Replies,
		Liked:     c.Liked,
	}
}

type Session struct {
	ID   string       `json:"id"`
	Role *domain.Role `json:"role,omitempty"`
}

func NewSessionFromDomain(s *domain.Session) Session {
	return Session{
		ID:   s.Auth.ID,
		Role: s.Role,
	}
}
