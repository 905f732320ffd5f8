package domain

import "time"

// Rating is one user's like or dislike on one comment. The (CommentID,
// UserID) pair is unique: a user holds at most one rating per comment, and
// setting it again overwrites in place.
type Rating struct {
	CommentID string
	UserID    string
	Like      bool
	CreatedAt time.Time
}
