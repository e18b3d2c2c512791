package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
)

// 延迟二删的间隔，覆盖读侧回填的并发窗口
const cacheDoubleDeleteDelay = 500 * time.Millisecond

type VoteService struct {
	repo     *mysql.VoteRepository
	cache    *redis.VoteCacheRepository
	log      *zap.Logger
	delDelay time.Duration
}

func NewVoteService(db *gorm.DB, cache *redis.VoteCacheRepository, log *zap.Logger) *VoteService {
	return &VoteService{
		repo:     &mysql.VoteRepository{DB: db},
		cache:    cache,
		log:      log,
		delDelay: cacheDoubleDeleteDelay,
	}
}

// CastVote 记录投票并给帖子对应计数 +1；isUpvoted 为 nil 时按赞成处理。
// 同一用户对同一帖子只能投一次，改票需先撤销
func (s *VoteService) CastVote(ctx context.Context, userID, postID uint64, isUpvoted *bool) (*model.Vote, error) {
	vote := &model.Vote{UserID: userID, PostID: postID, IsUpvoted: true}
	if isUpvoted != nil {
		vote.IsUpvoted = *isUpvoted
	}
	if err := s.repo.Cast(ctx, vote); err != nil {
		return nil, err
	}
	s.invalidate(ctx, postID)
	s.log.Info("vote cast",
		zap.Uint64("vote_id", vote.ID),
		zap.Uint64("user_id", userID),
		zap.Uint64("post_id", postID),
		zap.Bool("is_upvoted", vote.IsUpvoted))
	return vote, nil
}

// RetractVote 删除投票并回退计数
func (s *VoteService) RetractVote(ctx context.Context, userID, postID uint64) (*model.Vote, error) {
	vote, err := s.repo.Retract(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, postID)
	s.log.Info("vote retracted",
		zap.Uint64("user_id", userID),
		zap.Uint64("post_id", postID),
		zap.Bool("is_upvoted", vote.IsUpvoted))
	return vote, nil
}

func (s *VoteService) GetVote(ctx context.Context, userID, postID uint64) (*model.Vote, error) {
	return s.repo.FindByPair(ctx, userID, postID)
}

func (s *VoteService) ListVotes(ctx context.Context, f mysql.VoteFilter, page, size int) ([]model.Vote, error) {
	offset, limit := pageOffset(page, size)
	return s.repo.List(ctx, f, offset, limit)
}

// Describe 渲染为 USER(<username>) / POST(<title>) / BOARD(<name>) -> upvoted|downvoted
func (s *VoteService) Describe(ctx context.Context, voteID uint64) (string, error) {
	d, err := s.repo.Describe(ctx, voteID)
	if err != nil {
		return "", err
	}
	return d.Label(), nil
}

// 缓存失效失败只记日志，不影响已提交的投票
func (s *VoteService) invalidate(ctx context.Context, postID uint64) {
	if err := s.cache.Delete(ctx, postID, s.delDelay); err != nil {
		s.log.Warn("vote cache invalidate failed", zap.Uint64("post_id", postID), zap.Error(err))
	}
}
