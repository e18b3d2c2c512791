package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	VoteCntTTL       = 24 * time.Hour
	VoteCntKeyPrefix = "vote:cnt:post" // hash: up / down
	LockTTL          = 30 * time.Second
	LockKeyPrefix    = "lock"
)

// VoteCacheRepository 帖子投票计数缓存。RDB 为 nil 时所有操作都是空操作
type VoteCacheRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewVoteCacheRepository(rdb *redis.Client) *VoteCacheRepository {
	return &VoteCacheRepository{RDB: rdb, TTL: VoteCntTTL}
}

func (r *VoteCacheRepository) key(postID uint64) string {
	return fmt.Sprintf("%s:%d", VoteCntKeyPrefix, postID)
}

// Get 返回 (up, down, 是否命中)
func (r *VoteCacheRepository) Get(ctx context.Context, postID uint64) (uint64, uint64, bool, error) {
	if r == nil || r.RDB == nil {
		return 0, 0, false, nil
	}
	vals, err := r.RDB.HMGet(ctx, r.key(postID), "up", "down").Result()
	if err != nil {
		return 0, 0, false, err
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return 0, 0, false, nil
	}
	up, err := parseCount(vals[0])
	if err != nil {
		return 0, 0, false, err
	}
	down, err := parseCount(vals[1])
	if err != nil {
		return 0, 0, false, err
	}
	return up, down, true, nil
}

// Set 回填计数
func (r *VoteCacheRepository) Set(ctx context.Context, postID, up, down uint64) error {
	if r == nil || r.RDB == nil {
		return nil
	}
	k := r.key(postID)
	_, err := r.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, "up", up, "down", down)
		p.Expire(ctx, k, r.TTL)
		return nil
	})
	return err
}

// Delete 删除计数缓存；delay>0 时再异步删一次，抵消并发回填窗口
func (r *VoteCacheRepository) Delete(ctx context.Context, postID uint64, delay ...time.Duration) error {
	if r == nil || r.RDB == nil {
		return nil
	}
	k := r.key(postID)
	if err := r.RDB.Del(ctx, k).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = r.RDB.Del(context.Background(), k).Err()
		}()
	}
	return nil
}

func parseCount(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected cache value %T", v)
	}
	return strconv.ParseUint(s, 10, 64)
}

func (l *DistLock) key(name string) string {
	return fmt.Sprintf("%s:%s", LockKeyPrefix, name)
}

// Acquire 加锁；RDB 为 nil 时视为单实例，直接成功
func (l *DistLock) Acquire(ctx context.Context, name, token string) (bool, error) {
	if l == nil || l.RDB == nil {
		return true, nil
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = LockTTL
	}
	return l.RDB.SetNX(ctx, l.key(name), token, ttl).Result()
}

// Release 只释放自己持有的锁，lua 保证原子性
func (l *DistLock) Release(ctx context.Context, name, token string) error {
	if l == nil || l.RDB == nil {
		return nil
	}
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{l.key(name)}, token).Result()
	return err
}

// Extend 持有者续期，返回 false 表示锁已过期或被别人拿走
func (l *DistLock) Extend(ctx context.Context, name, token string) (bool, error) {
	if l == nil || l.RDB == nil {
		return true, nil
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = LockTTL
	}
	n, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("pexpire", KEYS[1], ARGV[2])
else
  return 0
end`).Run(ctx, l.RDB, []string{l.key(name)}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
