package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
)

type PostService struct {
	repo  *mysql.PostRepository
	cache *redis.VoteCacheRepository
	lock  *redis.DistLock
	log   *zap.Logger
}

type CreatePostInput struct {
	BoardPath    string `json:"board" validate:"required,max=20"`
	CreateUserID uint64 `json:"create_user_id" validate:"required"`
	Title        string `json:"title" validate:"required,max=100"`
	Content      string `json:"content"`
}

// UpdatePostInput 计数字段不可通过这里修改
type UpdatePostInput struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=100"`
	Content *string `json:"content"`
}

// VoteCounts 帖子的赞成与反对数
type VoteCounts struct {
	Upvote   uint64 `json:"upvote"`
	Downvote uint64 `json:"downvote"`
}

func NewPostService(db *gorm.DB, cache *redis.VoteCacheRepository, lock *redis.DistLock, log *zap.Logger) *PostService {
	return &PostService{
		repo:  &mysql.PostRepository{DB: db},
		cache: cache,
		lock:  lock,
		log:   log,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	post := &model.Post{
		BoardPath:    in.BoardPath,
		CreateUserID: in.CreateUserID,
		Title:        in.Title,
		Content:      in.Content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.Uint64("post_id", post.ID), zap.String("board", post.BoardPath))
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PostService) UpdatePost(ctx context.Context, id uint64, in UpdatePostInput) (*model.Post, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Content != nil {
		fields["content"] = *in.Content
	}
	return s.repo.Update(ctx, id, fields)
}

func (s *PostService) DeletePost(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("vote cache invalidate failed", zap.Uint64("post_id", id), zap.Error(err))
	}
	s.log.Info("post deleted", zap.Uint64("post_id", id))
	return nil
}

func (s *PostService) ListPosts(ctx context.Context, f mysql.PostFilter, page, size int) ([]model.Post, error) {
	offset, limit := pageOffset(page, size)
	return s.repo.List(ctx, f, offset, limit)
}

// VoteCounts 先读缓存；未命中时只让拿到锁的请求回源并回填
func (s *PostService) VoteCounts(ctx context.Context, id uint64) (VoteCounts, error) {
	if up, down, ok, err := s.cache.Get(ctx, id); err == nil && ok {
		return VoteCounts{Upvote: up, Downvote: down}, nil
	}

	name := fmt.Sprintf("vote:cnt:%d", id)
	token := fmt.Sprintf("%d-%d", id, time.Now().UnixNano())
	got, err := s.lock.Acquire(ctx, name, token)
	if err != nil {
		s.log.Warn("vote cache lock failed", zap.Uint64("post_id", id), zap.Error(err))
	}
	if got {
		defer func() {
			if err := s.lock.Release(ctx, name, token); err != nil {
				s.log.Warn("vote cache unlock failed", zap.Uint64("post_id", id), zap.Error(err))
			}
		}()
		// 二次检查
		if up, down, ok, err := s.cache.Get(ctx, id); err == nil && ok {
			return VoteCounts{Upvote: up, Downvote: down}, nil
		}
	}

	up, down, err := s.repo.Counts(ctx, id)
	if err != nil {
		return VoteCounts{}, err
	}
	if got {
		if err := s.cache.Set(ctx, id, up, down); err != nil {
			s.log.Warn("vote cache fill failed", zap.Uint64("post_id", id), zap.Error(err))
		}
	}
	return VoteCounts{Upvote: up, Downvote: down}, nil
}
