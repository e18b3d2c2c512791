package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
)

// 超过重试上限的事件留在表里等待人工处理
const outboxMaxRetry = 5

type Sender func(ctx context.Context, ob *model.VoteOutbox) error

// MessageSender 消息生产者，pkg.KafkaProducer 满足该接口
type MessageSender interface {
	Send(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// OutboxRelayer 定时扫描 vote_outbox，把事件交给 sender 投递
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, cfg config.OutboxConfig, sender Sender, log *zap.Logger) *OutboxRelayer {
	r := &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		sender:    sender,
		log:       log,
	}
	if r.batchSize <= 0 {
		r.batchSize = 200
	}
	if r.interval <= 0 {
		r.interval = time.Second
	}
	return r
}

// Run 阻塞运行直到 ctx 取消
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 投递一批事件，返回成功和失败的条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) (sent, failed int) {
	rows, err := r.repo.List(ctx, r.batchSize, outboxMaxRetry)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0, 0
	}
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			failed++
			r.log.Warn("outbox send failed",
				zap.String("event_id", ob.EventID),
				zap.Int("retry", ob.Retry+1),
				zap.Error(err))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Error("outbox mark failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		sent++
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", zap.Uint64("id", ob.ID), zap.Error(err))
		}
	}
	return sent, failed
}

// KafkaSender 以帖子 id 为 key 投递，同一帖子的事件保持顺序
func KafkaSender(p MessageSender) Sender {
	return func(ctx context.Context, ob *model.VoteOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.PostID), []byte(ob.Payload), map[string]string{
			"event_id":   ob.EventID,
			"event_type": ob.EventType,
		})
	}
}

// LogSender 未配置 Kafka 时使用，只打日志
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.VoteOutbox) error {
		log.Info("outbox event",
			zap.String("event_id", ob.EventID),
			zap.String("type", ob.EventType),
			zap.Uint64("user_id", ob.UserID),
			zap.Uint64("post_id", ob.PostID),
			zap.String("payload", ob.Payload))
		return nil
	}
}
