package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"timeline/errors"

	"github.com/go-sql-driver/mysql"
)

const (
	schemaLockName           = "timeline_posts_schema"
	schemaLockTimeoutSeconds = 10

	createPostsTable = "CREATE TABLE IF NOT EXISTS posts (" +
		"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"author TEXT NOT NULL, " +
		"content TEXT NOT NULL, " +
		"`timestamp` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6), " +
		"INDEX idx_timestamp (`timestamp` DESC)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

	insertPost    = "INSERT INTO posts (author, content) VALUES (?, ?)"
	selectPost    = "SELECT id, author, content, `timestamp` FROM posts WHERE id = ?"
	selectRecents = "SELECT id, author, content, `timestamp` FROM posts ORDER BY `timestamp` DESC, id DESC LIMIT ?"
)

// MySQLPostRepository keeps posts in a single relational table. Identifier
// assignment is delegated to AUTO_INCREMENT and the timestamp to the column default.
type MySQLPostRepository struct {
	db  *sql.DB
	log *slog.Logger

	initOnce sync.Once
	initErr  error
}

// NewMySQLPostRepository expects db to be opened with parseTime enabled.
func NewMySQLPostRepository(db *sql.DB, log *slog.Logger) *MySQLPostRepository {
	return &MySQLPostRepository{db: db, log: log}
}

// OpenMySQLPostRepository parses dsn and forces the settings the repository
// relies on: parsed DATETIME columns and a UTC session.
func OpenMySQLPostRepository(dsn string, log *slog.Logger) (*MySQLPostRepository, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	config.ParseTime = true
	config.Loc = time.UTC
	if config.Params == nil {
		config.Params = make(map[string]string)
	}
	config.Params["time_zone"] = "'+00:00'"

	connector, err := mysql.NewConnector(config)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	return NewMySQLPostRepository(db, log), nil
}

func (r *MySQLPostRepository) Init(ctx context.Context) error {
	r.initOnce.Do(func() {
		r.initErr = r.init(ctx)
	})
	return r.initErr
}

// init holds a MySQL named lock while creating the table so that several
// processes starting together do not race on the DDL.
func (r *MySQLPostRepository) init(ctx context.Context) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("mysql connection: %w", err)
	}
	defer conn.Close()

	var acquired sql.NullInt64
	err = conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", schemaLockName, schemaLockTimeoutSeconds).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("mysql schema lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		return fmt.Errorf("mysql schema lock %q not acquired within %ds", schemaLockName, schemaLockTimeoutSeconds)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DO RELEASE_LOCK(?)", schemaLockName); err != nil {
			r.log.Warn("Failed to release schema lock", "lock", schemaLockName, "error", err)
		}
	}()

	if _, err = conn.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("mysql create posts table: %w", err)
	}
	r.log.Debug("MySQL post table ready")
	return nil
}

func (r *MySQLPostRepository) StorePost(ctx context.Context, post NewPost) (DiskPost, error) {
	if err := r.Init(ctx); err != nil {
		return DiskPost{}, err
	}
	res, err := r.db.ExecContext(ctx, insertPost, post.Author, post.Content)
	if err != nil {
		return DiskPost{}, fmt.Errorf("failed to insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return DiskPost{}, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return r.getPost(ctx, id)
}

func (r *MySQLPostRepository) getPost(ctx context.Context, id int64) (DiskPost, error) {
	var post DiskPost
	err := r.db.QueryRowContext(ctx, selectPost, id).
		Scan(&post.ID, &post.Author, &post.Content, &post.Timestamp)
	if err == sql.ErrNoRows {
		return DiskPost{}, fmt.Errorf("%w: id %d", errors.ErrPostNotFound, id)
	}
	if err != nil {
		return DiskPost{}, fmt.Errorf("failed to read post %d: %w", id, err)
	}
	post.Timestamp = post.Timestamp.UTC()
	return post, nil
}

func (r *MySQLPostRepository) GetPosts(ctx context.Context, limit int) ([]DiskPost, error) {
	rows, err := r.db.QueryContext(ctx, selectRecents, effectiveLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]DiskPost, 0)
	for rows.Next() {
		var post DiskPost
		if err := rows.Scan(&post.ID, &post.Author, &post.Content, &post.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.Timestamp = post.Timestamp.UTC()
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

func (r *MySQLPostRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *MySQLPostRepository) Close() error {
	return r.db.Close()
}
