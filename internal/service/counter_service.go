package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
)

const counterLockName = "counter:reconcile"

// CounterReconciler 定时用投票表校准帖子计数，多实例部署时靠分布式锁只跑一份
type CounterReconciler struct {
	repo      *mysql.CounterRepository
	cache     *redis.VoteCacheRepository
	lock      *redis.DistLock
	batchSize int
	interval  time.Duration
	log       *zap.Logger
}

func NewCounterReconciler(db *gorm.DB, cache *redis.VoteCacheRepository, lock *redis.DistLock, log *zap.Logger) *CounterReconciler {
	return &CounterReconciler{
		repo:      &mysql.CounterRepository{DB: db},
		cache:     cache,
		lock:      lock,
		batchSize: 500,
		interval:  5 * time.Minute,
		log:       log,
	}
}

func (r *CounterReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce 全量扫一遍，返回被修正的帖子数
func (r *CounterReconciler) reconcileOnce(ctx context.Context) int {
	host, _ := os.Hostname()
	token := fmt.Sprintf("%s-%d", host, time.Now().UnixNano())
	got, err := r.lock.Acquire(ctx, counterLockName, token)
	if err != nil || !got {
		if err != nil {
			r.log.Warn("reconcile lock failed", zap.Error(err))
		}
		return 0
	}
	defer func() {
		if err := r.lock.Release(ctx, counterLockName, token); err != nil {
			r.log.Warn("reconcile unlock failed", zap.Error(err))
		}
	}()

	var (
		lastID uint64
		fixed  int
	)
	for {
		rows, next, err := r.repo.Scan(ctx, lastID, r.batchSize)
		if err != nil {
			r.log.Error("reconcile scan failed", zap.Uint64("last_id", lastID), zap.Error(err))
			return fixed
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			changed, err := r.repo.Reconcile(ctx, row.ID)
			if err != nil {
				r.log.Warn("reconcile post failed", zap.Uint64("post_id", row.ID), zap.Error(err))
				continue
			}
			if changed {
				fixed++
				if err := r.cache.Delete(ctx, row.ID); err != nil {
					r.log.Warn("vote cache invalidate failed", zap.Uint64("post_id", row.ID), zap.Error(err))
				}
				r.log.Info("post counters corrected",
					zap.Uint64("post_id", row.ID),
					zap.Uint64("stored_up", row.Upvote),
					zap.Uint64("stored_down", row.Downvote))
			}
		}
		lastID = next

		// 每批续期一次，锁丢了就让给别的实例
		held, err := r.lock.Extend(ctx, counterLockName, token)
		if err != nil || !held {
			r.log.Warn("reconcile lock lost", zap.Uint64("last_id", lastID), zap.Error(err))
			return fixed
		}
	}
	return fixed
}
