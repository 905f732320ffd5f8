package request

import "github.com/Guyuepp/go-comment-engine/domain"

type PostComment struct {
	Content *domain.ContentNode `json:"content" binding:"required"`
	Thread  string              `json:"thread"`
}

type UpdateComment struct {
	Content *domain.ContentNode `json:"content" binding:"required"`
}

// Rate carries the caller's like/dislike. A pointer so a missing field is
// distinguishable from false.
type Rate struct {
	Like *bool `json:"like" binding:"required"`
}
