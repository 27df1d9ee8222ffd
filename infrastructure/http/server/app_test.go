package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"timeline/mocks"
	"timeline/observability"
	"timeline/repositories"
	"timeline/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type postJSON struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func newBadgerApp(t *testing.T, staticDir string) *fiber.App {
	t.Helper()
	return newBadgerAppWithConfig(t, AppConfig{StaticDir: staticDir})
}

func newBadgerAppWithConfig(t *testing.T, cfg AppConfig) *fiber.App {
	t.Helper()
	repo, err := repositories.OpenBadgerPostRepository(
		badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR),
		slog.Default(),
	)
	require.NoError(t, err)
	require.NoError(t, repo.Init(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })

	log := slog.Default()
	return NewApp(
		cfg,
		log,
		services.NewPostService(log, repo),
		observability.NewHealthReporter(log, repo),
	)
}

func newMockedApp(t *testing.T) (*fiber.App, *mocks.MockIPostRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIPostRepository(ctrl)
	log := slog.Default()
	app := NewApp(AppConfig{}, log, services.NewPostService(log, repo), observability.NewHealthReporter(log, repo))
	return app, repo
}

func send(t *testing.T, app *fiber.App, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		request.Header.Set(fiber.HeaderContentType, contentType)
	}
	response, err := app.Test(request, -1)
	require.NoError(t, err)
	defer response.Body.Close()
	payload, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, payload
}

func createPost(t *testing.T, app *fiber.App, author, content string) (int, []byte) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"author": author, "content": content})
	require.NoError(t, err)
	return send(t, app, fiber.MethodPost, "/api/posts", fiber.MIMEApplicationJSON, string(body))
}

func Test_Create_Post_Echoes_Stored_Post(t *testing.T) {
	req := require.New(t)
	app := newBadgerApp(t, "")

	status, payload := createPost(t, app, "alice", "hello")

	req.Equal(fiber.StatusOK, status)
	var post postJSON
	req.NoError(json.Unmarshal(payload, &post))
	req.Equal(int64(1), post.ID)
	req.Equal("alice", post.Author)
	req.Equal("hello", post.Content)
	req.False(post.Timestamp.IsZero())
	req.WithinDuration(time.Now(), post.Timestamp, time.Minute)
}

func Test_Create_Post_Rejects_Invalid_Input(t *testing.T) {
	app := newBadgerApp(t, "")

	tests := []struct {
		name        string
		contentType string
		body        string
		wantMessage string
	}{
		{"Empty author", fiber.MIMEApplicationJSON, `{"author":"","content":"hi"}`, "Author and content are required"},
		{"Missing author", fiber.MIMEApplicationJSON, `{"content":"hi"}`, "Author and content are required"},
		{"Missing content", fiber.MIMEApplicationJSON, `{"author":"bob"}`, "Author and content are required"},
		{"Content over 50 characters", fiber.MIMEApplicationJSON, fmt.Sprintf(`{"author":"bob","content":%q}`, strings.Repeat("x", 51)), "Content must be 50 characters or less"},
		{"Malformed json", fiber.MIMEApplicationJSON, `{"author":`, "Author and content are required"},
		{"Wrong field type", fiber.MIMEApplicationJSON, `{"author":42,"content":"hi"}`, "Author and content are required"},
		{"Plain text body", fiber.MIMETextPlain, `alice: hello`, "Author and content are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			status, payload := send(t, app, fiber.MethodPost, "/api/posts", tt.contentType, tt.body)

			req.Equal(fiber.StatusBadRequest, status)
			var e errorJSON
			req.NoError(json.Unmarshal(payload, &e))
			req.Equal(tt.wantMessage, e.Error)
		})
	}

	// Nothing was stored by the rejected requests
	status, payload := send(t, app, fiber.MethodGet, "/api/posts", "", "")
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `[]`, string(payload))
}

func Test_Long_Author_Fits_Default_Body_Limit(t *testing.T) {
	req := require.New(t)
	app := newBadgerAppWithConfig(t, AppConfig{BodyLimit: DefaultBodyLimit})
	author := strings.Repeat("a", 5000)

	status, payload := createPost(t, app, author, "hi")

	req.Equal(fiber.StatusOK, status)
	var post postJSON
	req.NoError(json.Unmarshal(payload, &post))
	req.Equal(author, post.Author)
}

func Test_Content_Length_Counts_Code_Points(t *testing.T) {
	req := require.New(t)
	app := newBadgerApp(t, "")

	status, _ := createPost(t, app, "ユーザー", strings.Repeat("日", 50))
	req.Equal(fiber.StatusOK, status)

	status, _ = createPost(t, app, "ユーザー", strings.Repeat("日", 51))
	req.Equal(fiber.StatusBadRequest, status)
}

func Test_List_Posts_Newest_First(t *testing.T) {
	req := require.New(t)
	app := newBadgerApp(t, "")

	var lastID int64
	for _, content := range []string{"first", "second", "third"} {
		status, payload := createPost(t, app, "carol", content)
		req.Equal(fiber.StatusOK, status)
		var post postJSON
		req.NoError(json.Unmarshal(payload, &post))
		req.Greater(post.ID, lastID)
		lastID = post.ID
	}

	status, payload := send(t, app, fiber.MethodGet, "/api/posts", "", "")
	req.Equal(fiber.StatusOK, status)

	var posts []postJSON
	req.NoError(json.Unmarshal(payload, &posts))
	req.Len(posts, 3)
	req.Equal("third", posts[0].Content)
	req.Equal("second", posts[1].Content)
	req.Equal("first", posts[2].Content)
	for i := 1; i < len(posts); i++ {
		req.False(posts[i].Timestamp.After(posts[i-1].Timestamp))
	}

	// Reads are idempotent
	status, again := send(t, app, fiber.MethodGet, "/api/posts", "", "")
	req.Equal(fiber.StatusOK, status)
	req.Equal(string(payload), string(again))
}

func Test_List_Posts_Is_Capped(t *testing.T) {
	req := require.New(t)
	app, repo := newMockedApp(t)

	repo.EXPECT().GetPosts(gomock.Any(), 1000).Return([]repositories.DiskPost{}, nil).Times(1)

	status, payload := send(t, app, fiber.MethodGet, "/api/posts", "", "")
	req.Equal(fiber.StatusOK, status)
	req.JSONEq(`[]`, string(payload))
}

func Test_Storage_Failures_Return_Generic_Errors(t *testing.T) {
	app, repo := newMockedApp(t)

	t.Run("list", func(t *testing.T) {
		req := require.New(t)
		repo.EXPECT().GetPosts(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("value log corrupted")).Times(1)

		status, payload := send(t, app, fiber.MethodGet, "/api/posts", "", "")

		req.Equal(fiber.StatusInternalServerError, status)
		req.JSONEq(`{"error":"Failed to fetch posts"}`, string(payload))
	})

	t.Run("create", func(t *testing.T) {
		req := require.New(t)
		repo.EXPECT().StorePost(gomock.Any(), gomock.Any()).Return(repositories.DiskPost{}, fmt.Errorf("disk full")).Times(1)

		status, payload := createPost(t, app, "dave", "hi")

		req.Equal(fiber.StatusInternalServerError, status)
		req.JSONEq(`{"error":"Failed to create post"}`, string(payload))
	})
}

func Test_Health_Reflects_Storage(t *testing.T) {
	app, repo := newMockedApp(t)

	t.Run("storage up", func(t *testing.T) {
		req := require.New(t)
		repo.EXPECT().Ping(gomock.Any()).Return(nil).Times(1)

		status, payload := send(t, app, fiber.MethodGet, "/api/health", "", "")

		req.Equal(fiber.StatusOK, status)
		var report observability.HealthReport
		req.NoError(json.Unmarshal(payload, &report))
		req.Equal(observability.StatusOK, report.Status)
	})

	t.Run("storage down", func(t *testing.T) {
		req := require.New(t)
		repo.EXPECT().Ping(gomock.Any()).Return(fmt.Errorf("closed")).Times(1)

		status, payload := send(t, app, fiber.MethodGet, "/api/health", "", "")

		req.Equal(fiber.StatusServiceUnavailable, status)
		var report observability.HealthReport
		req.NoError(json.Unmarshal(payload, &report))
		req.Equal(observability.StatusDegraded, report.Status)
	})
}

func Test_Cors_And_Request_Id_Headers(t *testing.T) {
	req := require.New(t)
	app := newBadgerApp(t, "")

	request := httptest.NewRequest(fiber.MethodGet, "/api/posts", nil)
	request.Header.Set(fiber.HeaderOrigin, "http://example.com")
	response, err := app.Test(request, -1)
	req.NoError(err)
	defer response.Body.Close()

	req.Equal("*", response.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	req.NotEmpty(response.Header.Get(fiber.HeaderXRequestID))
}

func Test_Static_Files_Are_Served(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>timeline</h1>"), 0o644))
	app := newBadgerApp(t, dir)

	status, payload := send(t, app, fiber.MethodGet, "/", "", "")
	req.Equal(fiber.StatusOK, status)
	req.Equal("<h1>timeline</h1>", string(payload))

	status, payload = send(t, app, fiber.MethodGet, "/missing.js", "", "")
	req.Equal(fiber.StatusNotFound, status)
	var e errorJSON
	req.NoError(json.Unmarshal(payload, &e))
	req.NotEmpty(e.Error)
}
