package model

import (
	"encoding/json"
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
)

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Page      string    `gorm:"column:page;size:191;not null;index:idx_page_thread,priority:1"`
	ThreadID  *string   `gorm:"column:thread_id;size:36;index:idx_page_thread,priority:2"`
	Author    string    `gorm:"column:author;size:191;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"type:datetime(6);index"`
}

func (Comment) TableName() string {
	return "comment"
}

func NewCommentFromDomain(c *domain.Comment) (*Comment, error) {
	raw, err := json.Marshal(c.Content)
	if err != nil {
		return nil, err
	}
	return &Comment{
		ID:        c.ID,
		Page:      c.Page,
		ThreadID:  c.ThreadID,
		Author:    c.Author,
		Content:   string(raw),
		CreatedAt: c.CreatedAt,
	}, nil
}

func (m *Comment) ToDomain() domain.Comment {
	var content domain.ContentNode
	_ = json.Unmarshal([]byte(m.Content), &content)
	return domain.Comment{
		ID:        m.ID,
		Page:      m.Page,
		ThreadID:  m.ThreadID,
		Author:    m.Author,
		Content:   &content,
		CreatedAt: m.CreatedAt,
	}
}
