package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	GinMode  string
	MediaURL string

	DB     DBConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Outbox OutboxConfig
	Log    LogConfig
}

type DBConfig struct {
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string // 为空时不启用缓存
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string // 为空时投递器只打日志
	Topic   string
}

type OutboxConfig struct {
	Interval  time.Duration
	BatchSize int
}

type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load 读取 .env（可选）后从环境变量装配配置，环境变量优先
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv 只读环境变量，便于测试
func FromEnv() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.GinMode = getEnv("GIN_MODE", "release")
	cfg.MediaURL = getEnv("MEDIA_URL", "/media/")

	cfg.DB = DBConfig{
		DSN:      os.Getenv("DATABASE_DSN"),
		Host:     getEnv("DB_HOST", "127.0.0.1"),
		Port:     getEnv("DB_PORT", "3306"),
		User:     getEnv("DB_USER", "root"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getEnv("DB_NAME", "forum"),
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}

	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "forum.votes")

	if cfg.Outbox.Interval, err = getDuration("OUTBOX_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Outbox.BatchSize, err = getInt("OUTBOX_BATCH", 200); err != nil {
		return Config{}, err
	}

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Log.Path = os.Getenv("LOG_PATH")
	if cfg.Log.MaxSizeMB, err = getInt("LOG_MAX_SIZE_MB", 100); err != nil {
		return Config{}, err
	}
	if cfg.Log.MaxBackups, err = getInt("LOG_MAX_BACKUPS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Log.MaxAgeDays, err = getInt("LOG_MAX_AGE_DAYS", 7); err != nil {
		return Config{}, err
	}
	if cfg.Log.Compress, err = getBool("LOG_COMPRESS", false); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// MySQLDSN 优先使用完整 DSN，否则按分项拼接
func (c DBConfig) MySQLDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
