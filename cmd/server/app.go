package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sweet_shop/internal/auth"
	"sweet_shop/internal/config"
	"sweet_shop/internal/logging"
	"sweet_shop/internal/service"
	"sweet_shop/internal/store"
)

// app 持有进程内共享的组件，serve 与运维子命令共用。
type app struct {
	cfg    config.AppConfig
	log    *logrus.Logger
	db     *gorm.DB
	tokens *auth.TokenService
	users  *service.UserDirectory
}

// newApp 加载配置、打开数据库并自动建表。
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	users, err := service.NewUserDirectory(db, auth.NewPasswordHasher(auth.DefaultArgon2Params), tokens, &cfg, log)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, tokens: tokens, users: users}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
