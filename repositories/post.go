//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=../mocks/mock_post_repository.go -package=mocks
package repositories

import (
	"context"
	"time"
)

// DefaultLimit is applied by GetPosts when the caller passes a non-positive limit.
const DefaultLimit = 1000

type IPostRepository interface {
	// Init ensures the schema exists. It is safe to call more than once.
	Init(ctx context.Context) error
	// StorePost inserts a post and returns the persisted row, id and timestamp included.
	StorePost(ctx context.Context, post NewPost) (DiskPost, error)
	// GetPosts returns the most recent posts, newest first, ties broken by id descending.
	GetPosts(ctx context.Context, limit int) ([]DiskPost, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewPost carries the caller supplied fields of a post. Identifier and
// timestamp are always assigned by the repository.
type NewPost struct {
	Author  string
	Content string
}

type DiskPost struct {
	ID        int64
	Author    string
	Content   string
	Timestamp time.Time
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
