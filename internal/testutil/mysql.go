package testutil

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/multierr"
)

const (
	mysqlExpireSeconds = 120
	mysqlDatabase      = "timeline"
)

// NewMySQL runs a MySQL 8.0 container and returns a handle opened with
// parseTime and a UTC location. The schema is left to the code under test.
func NewMySQL(pool *dockertest.Pool) (_ *sql.DB, _ Cleanup, err error) {
	pool, err = initDockertest(pool)
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: "mysql",
			Tag:        "8.0",
			Env: []string{
				"MYSQL_DATABASE=" + mysqlDatabase,
				"MYSQL_PASSWORD=password",
				"MYSQL_USER=user",
				"MYSQL_ROOT_PASSWORD=password",
				"TZ=UTC",
			},
		},
		func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run mysql container: %w", err)
	}

	cleanup := func() error {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			return fmt.Errorf("failed to purge mysql container: %w", purgeErr)
		}
		return nil
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, cleanup())
		}
	}()

	if err = resource.Expire(mysqlExpireSeconds); err != nil {
		return nil, nil, fmt.Errorf("failed to set expire time: %w", err)
	}

	config := &mysql.Config{
		User:                 "user",
		Passwd:               "password",
		Net:                  "tcp",
		Addr:                 resource.GetHostPort("3306/tcp"),
		DBName:               mysqlDatabase,
		ParseTime:            true,
		Loc:                  time.UTC,
		AllowNativePasswords: true,
		Params:               map[string]string{"time_zone": "'+00:00'"},
	}

	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		m, retryErr := sql.Open("mysql", config.FormatDSN())
		if retryErr != nil {
			return retryErr
		}
		defer m.Close()
		return m.Ping()
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	db, err := sql.Open("mysql", config.FormatDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	return db, func() error {
		return multierr.Append(db.Close(), cleanup())
	}, nil
}
