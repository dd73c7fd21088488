package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 聚合运行时配置，进程启动时构建一次，之后只读。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	// 允许跨域访问的前端来源，逗号分隔；为空则不回写任何 CORS 头。
	AllowedOrigins []string

	// 令牌签名：密钥、算法（HS256/HS384/HS512）、默认有效期
	JWTSecret    string
	JWTAlgorithm string
	TokenTTL     time.Duration

	// 注册邮箱与之相同的用户自动成为管理员；为空则不提升任何人。
	AdminEmail string

	// Redis 为空时购买限流退化为进程内令牌桶
	RedisAddr string
	RedisDB   int

	// 购买接口限流（按用户）
	PurchaseRateLimit  int
	PurchaseRateWindow time.Duration

	// Kafka 为空时不投递库存事件
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load 读取 .env（可缺省）与环境变量并校验，缺失时使用默认值。
// SECRET_KEY 没有默认值。
func Load() (AppConfig, error) {
	// .env 不存在不是错误，沿用进程环境。
	_ = godotenv.Load()

	cfg := AppConfig{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "sweet_shop.db"),
		AllowedOrigins:     splitCSV(getEnv("ALLOWED_ORIGINS", "")),
		JWTSecret:          getEnv("SECRET_KEY", ""),
		JWTAlgorithm:       getEnv("ALGORITHM", "HS256"),
		TokenTTL:           30 * time.Minute,
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisDB:            0,
		PurchaseRateLimit:  20,
		PurchaseRateWindow: time.Second,
		KafkaBrokers:       splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "sweet-shop-inventory"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	if cfg.JWTSecret == "" {
		return AppConfig{}, fmt.Errorf("SECRET_KEY must not be empty")
	}
	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return AppConfig{}, fmt.Errorf("ALGORITHM must be one of HS256, HS384, HS512")
	}

	ttlMin, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", int(cfg.TokenTTL.Minutes()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
	}
	if ttlMin <= 0 {
		return AppConfig{}, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}
	cfg.TokenTTL = time.Duration(ttlMin) * time.Minute

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("PURCHASE_RATE_LIMIT", cfg.PurchaseRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid PURCHASE_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("PURCHASE_RATE_LIMIT must be > 0")
	}
	cfg.PurchaseRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("PURCHASE_RATE_WINDOW_SEC", int(cfg.PurchaseRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid PURCHASE_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("PURCHASE_RATE_WINDOW_SEC must be > 0")
	}
	cfg.PurchaseRateWindow = time.Duration(rateWindowSec) * time.Second

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
