// Package domain contains core concepts of the timeline board.
// Posts are immutable once stored and only validated at creation time.
package domain

import "time"

const (
	// MaxContentLength is counted in Unicode code points.
	MaxContentLength = 50
	// ListLimit caps how many posts a timeline read returns.
	ListLimit = 1000
)

// Post is one message published on the board.
type Post struct {
	ID        int64
	Author    string
	Content   string
	Timestamp time.Time
}

// CreatePostCommand is checked with go-playground/validator. The max tag
// mirrors MaxContentLength; validator counts runes for strings.
type CreatePostCommand struct {
	Author  string `validate:"required"`
	Content string `validate:"required,max=50"`
}
