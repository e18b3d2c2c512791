package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
	"Lee_Forum/internal/router"
	"Lee_Forum/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run 返回时所有 defer 的资源都已释放
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := pkg.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := mysql.Open(cfg.DB.MySQLDSN(), cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	// 自动建表
	if err := mysql.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Redis 可选，未配置时计数直接读库
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		if rdb, err = redis.NewClient(cfg.Redis); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		defer func() { _ = rdb.Close() }()
	}
	cache := redis.NewVoteCacheRepository(rdb)
	lock := &redis.DistLock{RDB: rdb}

	// Kafka 可选，未配置时事件只打日志
	sender := service.LogSender(log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(cfg.Kafka)
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer)
		log.Info("outbox publishing to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", producer.Topic()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go service.NewOutboxRelayer(db, cfg.Outbox, sender, log).Run(ctx)
	go service.NewCounterReconciler(db, cache, lock, log).Run(ctx)

	gin.SetMode(cfg.GinMode)
	r := router.InitRouter(router.Services{
		Users:    service.NewUserService(db, cache, log),
		Boards:   service.NewBoardService(db, cache, log),
		Posts:    service.NewPostService(db, cache, lock, log),
		Votes:    service.NewVoteService(db, cache, log),
		MediaURL: cfg.MediaURL,
	}, log)

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var listenErr error
	select {
	case <-ctx.Done():
	case listenErr = <-serveErr:
		log.Error("http server", zap.Error(listenErr))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return listenErr
}
