// Package client talks to the timeline HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"
)

const (
	postsPath      = "/api/posts"
	DefaultTimeout = 5 * time.Second
)

type Post struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError is returned for any non 200 answer. Message holds the server's
// "error" field when the body carried one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("timeline api: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	timeout time.Duration
}

func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: DefaultTimeout}
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	posts := make([]Post, 0)
	if err := c.do(ctx, fiber.Get(c.baseURL+postsPath), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, author, content string) (Post, error) {
	agent := fiber.Post(c.baseURL + postsPath).JSON(map[string]string{
		"author":  author,
		"content": content,
	})
	var post Post
	if err := c.do(ctx, agent, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// do runs the request with the context deadline when there is one.
// Cancellation after the request started is not observed.
func (c *Client) do(ctx context.Context, agent *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("timeline api: %w", multierr.Combine(errs...))
	}
	if status != fiber.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return &APIError{StatusCode: status, Message: e.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("timeline api: decode response: %w", err)
	}
	return nil
}
