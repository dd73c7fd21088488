package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sweet_shop/internal/auth"
	"sweet_shop/internal/middleware"
	"sweet_shop/internal/queue"
	"sweet_shop/internal/router"
	"sweet_shop/internal/service"
	rediskey "sweet_shop/pkg/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	// 1. 购买限流：配置了 Redis 用分布式滑动窗口，否则用进程内令牌桶
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb := rd.NewClient(&rd.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Redis 不可用时仍然启动，限流中间件按降级策略放行。
			a.log.WithError(err).Warn("redis ping failed")
		}
		limiter = rediskey.NewSlidingWindow(rdb, cfg.PurchaseRateLimit, cfg.PurchaseRateWindow)
	} else {
		limiter = middleware.NewLocalLimiter(cfg.PurchaseRateLimit, cfg.PurchaseRateWindow)
	}

	// 2. 库存事件：未配置 Kafka 时丢弃
	var publisher queue.Publisher = queue.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Deps{
		Users:     a.users,
		Catalog:   service.NewCatalog(a.db, a.log),
		Inventory: service.NewInventory(a.db, publisher, a.log),
		Gate:      auth.NewGate(a.tokens),
		Limiter:   limiter,
		Log:       a.log,

		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"addr":        cfg.HTTPAddr,
			"redis":       cfg.RedisAddr != "",
			"kafka":       len(cfg.KafkaBrokers) > 0,
			"admin_email": cfg.AdminEmail != "",
		}).Info("sweet shop listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
