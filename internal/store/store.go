// Package store opens the relational store and classifies its errors.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sweet_shop/internal/model"
)

// Open 连接 SQLite。文件库开启 WAL、外键与 busy timeout，
// 以便并发请求在提交时由唯一约束兜底。
func Open(path string, log logrus.FieldLogger) (*gorm.DB, error) {
	return open(sqlite.Open(dsn(path)), log)
}

// OpenMemory 打开以 name 区分的共享内存库，测试使用。
func OpenMemory(name string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)), log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 单连接：共享缓存的内存库在多连接写时会报 table locked。
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenDialector wraps an existing dialector, e.g. one backed by sqlmock.
func OpenDialector(d gorm.Dialector, log logrus.FieldLogger) (*gorm.DB, error) {
	return open(d, log)
}

func open(d gorm.Dialector, log logrus.FieldLogger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
	db, err := gorm.Open(d, cfg)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	if strings.HasPrefix(path, "file:") || path == ":memory:" {
		return path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
}

// Migrate 自动建表：users、sweets、purchases。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Sweet{}, &model.Purchase{}); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound reports whether err is gorm's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
