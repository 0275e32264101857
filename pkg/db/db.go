// Package db constructs the shared gorm handle. The connection is built once
// at startup and injected into every repository, never reached through a
// global.
package db

import (
	"github.com/evacdesk/evacdesk/internal/config"
	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Module provides the *gorm.DB used by all repositories.
var Module = fx.Module("db",
	fx.Provide(New),
)

func New(cfg config.Config) (*gorm.DB, error) {
	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	return gorm.Open(dialect, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
}

// NewTest opens an in-memory sqlite database for package tests. The pool is
// pinned to one connection because every in-memory connection is otherwise
// its own private database.
func NewTest() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return conn, nil
}
