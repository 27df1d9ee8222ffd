package main

import (
	"fmt"
	"time"
	"timeline/errors"
)

const (
	driverBadger = "badger"
	driverMySQL  = "mysql"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=3000"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	StorageDriver   string        `env:"STORAGE_DRIVER,default=badger"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=timeline.db"`
	MySQLDSN        string        `env:"MYSQL_DSN"`
	StaticDir       string        `env:"STATIC_DIR,default=public"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	BodyLimit       int           `env:"BODY_LIMIT,default=102400"`
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case driverBadger:
		if c.BadgerFilepath == "" {
			return fmt.Errorf("BADGER_FILEPATH is required with the %s driver", driverBadger)
		}
	case driverMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required with the %s driver", driverMySQL)
		}
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownStorageDriver, c.StorageDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
