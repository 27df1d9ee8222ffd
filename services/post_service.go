package services

import (
	"context"
	"fmt"
	"log/slog"
	"timeline/domain"
	"timeline/errors"
	"timeline/repositories"

	"github.com/samber/lo"
)

type IPostService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	CreatePost(ctx context.Context, cmd domain.CreatePostCommand) (domain.Post, error)
}

type PostService struct {
	log            *slog.Logger
	postRepository repositories.IPostRepository
}

func NewPostService(log *slog.Logger, repo repositories.IPostRepository) IPostService {
	return &PostService{log: log, postRepository: repo}
}

// ListPosts returns at most domain.ListLimit posts, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	diskPosts, err := s.postRepository.GetPosts(ctx, domain.ListLimit)
	if err != nil {
		s.log.Error("Error fetching posts", "error", err)
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}
	return lo.Map(diskPosts, func(p repositories.DiskPost, _ int) domain.Post {
		return toPost(p)
	}), nil
}

func (s *PostService) CreatePost(ctx context.Context, cmd domain.CreatePostCommand) (domain.Post, error) {
	// 1. Business rules first, the repository is never reached with invalid input
	if err := ValidateCreatePost(cmd); err != nil {
		s.log.Debug("Post rejected", "author", cmd.Author, "reason", err)
		return domain.Post{}, err
	}

	// 2. Identifier and timestamp come from the storage layer
	stored, err := s.postRepository.StorePost(ctx, repositories.NewPost{
		Author:  cmd.Author,
		Content: cmd.Content,
	})
	if err != nil {
		s.log.Error("Error creating post", "author", cmd.Author, "error", err)
		return domain.Post{}, fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
	}

	s.log.Debug("Post created", "id", stored.ID, "author", stored.Author)
	return toPost(stored), nil
}

func toPost(p repositories.DiskPost) domain.Post {
	return domain.Post{
		ID:        p.ID,
		Author:    p.Author,
		Content:   p.Content,
		Timestamp: p.Timestamp,
	}
}
