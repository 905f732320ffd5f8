package model

import (
	"time"

	"github.com/Guyuepp/go-comment-engine/domain"
)

// Rating holds one user's like/dislike on one comment. The composite unique
// index is what makes the upsert atomic under concurrent double-submission.
// LIKE is a reserved word in MySQL, hence the liked column.
type Rating struct {
	CommentID string    `gorm:"column:comment_id;size:36;not null;uniqueIndex:uniq_comment_user,priority:1"`
	UserID    string    `gorm:"column:user_id;size:191;not null;uniqueIndex:uniq_comment_user,priority:2"`
	Liked     bool      `gorm:"column:liked;not null"`
	CreatedAt time.Time `gorm:"type:datetime(6)"`
}

func (Rating) TableName() string {
	return "rating"
}

func NewRatingFromDomain(r domain.Rating) Rating {
	return Rating{
		CommentID: r.CommentID,
		UserID:    r.UserID,
		Liked:     r.Like,
		CreatedAt: r.CreatedAt,
	}
}

func (m *Rating) ToDomain() domain.Rating {
	return domain.Rating{
		CommentID: m.CommentID,
		UserID:    m.UserID,
		Like:      m.Liked,
		CreatedAt: m.CreatedAt,
	}
}
