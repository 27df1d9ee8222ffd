package main

import (
	"testing"
	"timeline/errors"
	"timeline/infrastructure/http/server"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var config Config
	err := env.Unmarshal(env.EnvSet{}, &config)
	req.NoError(err)

	req.Equal(3000, config.Port)
	req.Equal("0.0.0.0:3000", config.Address())
	req.Equal(driverBadger, config.StorageDriver)
	req.Equal("timeline.db", config.BadgerFilepath)
	req.Equal(server.DefaultBodyLimit, config.BodyLimit)
	req.NoError(config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     env.EnvSet
		wantErr bool
	}{
		{"Port override", env.EnvSet{"PORT": "8080"}, false},
		{"Mysql with dsn", env.EnvSet{"STORAGE_DRIVER": "mysql", "MYSQL_DSN": "user:pw@tcp(localhost:3306)/timeline"}, false},
		{"Mysql without dsn", env.EnvSet{"STORAGE_DRIVER": "mysql"}, true},
		{"Port out of range", env.EnvSet{"PORT": "70000"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			var config Config
			err := env.Unmarshal(tt.env, &config)
			req.NoError(err)
			if tt.wantErr {
				req.Error(config.Validate())
			} else {
				req.NoError(config.Validate())
			}
		})
	}
}

func TestConfig_Rejects_Unknown_Driver(t *testing.T) {
	req := require.New(t)
	var config Config
	err := env.Unmarshal(env.EnvSet{"STORAGE_DRIVER": "sqlite"}, &config)
	req.NoError(err)
	req.ErrorIs(config.Validate(), errors.ErrUnknownStorageDriver)
}
