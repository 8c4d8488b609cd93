/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"fmt"
	"strings"
	"time"

	"dmcore/internal"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models owned by the storage layer, in migration order
var models = []any{
	&entity.SystemState{},
	&entity.User{},
	&entity.Message{},
}

// Connection options of the sqlite file. A writer waits up to 5s for the lock, transactions take it upfront.
const sqliteOptions = "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

// gormWriter lets gorm print through a subsystem logger
type gormWriter struct {
	log nlog.Logger
}

func (w gormWriter) Printf(format string, v ...any) {
	w.log.Logf(format, v...)
}

// Dialector picks the gorm driver matching config.DBDriver
func Dialector(config *internal.Config) (gorm.Dialector, error) {
	switch config.DBDriver {
	case internal.DriverSQLite:
		return sqlite.Open(SQLiteDSN(config.DatabasePath())), nil
	case internal.DriverPostgres:
		return postgres.Open(config.DBDSN), nil
	}
	return nil, fmt.Errorf("unknown db-driver %q", config.DBDriver)
}

// SQLiteDSN appends the connection options to a sqlite path or DSN
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteOptions
	}
	return path + "?" + sqliteOptions
}

// OpenDatabase opens the configured database and migrates the models. Slow queries and errors go to log.
func OpenDatabase(config *internal.Config, log nlog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(config)
	if err != nil {
		return nil, err
	}
	return Open(dialector, log)
}

// Open opens a database over any dialector and migrates the models
func Open(dialector gorm.Dialector, log nlog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormWriter{log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	// sqlite has a single writer: one connection turns lock contention into waiting on the pool
	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return db, nil
}

// CloseDatabase closes the underlying connection pool
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
