// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"fmt"

	"github.com/ory/dockertest/v3"
)

type Cleanup func() error

func initDockertest(pool *dockertest.Pool) (*dockertest.Pool, error) {
	if pool == nil {
		var err error
		pool, err = dockertest.NewPool("")
		if err != nil {
			return nil, fmt.Errorf("could not construct pool: %w", err)
		}
	}

	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to Docker: %w", err)
	}
	return pool, nil
}
