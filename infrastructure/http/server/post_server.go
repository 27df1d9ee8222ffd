package server

import (
	stderrors "errors"
	"log/slog"
	"time"
	"timeline/domain"
	"timeline/errors"
	"timeline/services"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	msgFetchFailed  = "Failed to fetch posts"
	msgCreateFailed = "Failed to create post"
)

type PostServer struct {
	log         *slog.Logger
	postService services.IPostService
}

func NewPostServer(log *slog.Logger, postService services.IPostService) *PostServer {
	return &PostServer{log: log, postService: postService}
}

type createPostRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type postResponse struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *PostServer) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: msgFetchFailed})
	}
	return c.JSON(lo.Map(posts, func(p domain.Post, _ int) postResponse {
		return toPostResponse(p)
	}))
}

// CreatePost treats an unreadable body like an empty one: no field could be
// read, so author and content are both missing.
func (s *PostServer) CreatePost(c *fiber.Ctx) error {
	var body createPostRequest
	if err := c.BodyParser(&body); err != nil {
		s.log.Debug("Unreadable post body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errors.ErrAuthorAndContentRequired.Error()})
	}

	post, err := s.postService.CreatePost(c.UserContext(), domain.CreatePostCommand{
		Author:  body.Author,
		Content: body.Content,
	})
	switch {
	case err == nil:
		return c.JSON(toPostResponse(post))
	case stderrors.Is(err, errors.ErrAuthorAndContentRequired):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errors.ErrAuthorAndContentRequired.Error()})
	case stderrors.Is(err, errors.ErrContentTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: errors.ErrContentTooLong.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: msgCreateFailed})
	}
}

func toPostResponse(p domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Author:    p.Author,
		Content:   p.Content,
		Timestamp: p.Timestamp.UTC(),
	}
}
