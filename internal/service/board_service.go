package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
)

type BoardService struct {
	repo  *mysql.BoardRepository
	cache *redis.VoteCacheRepository
	log   *zap.Logger
}

type CreateBoardInput struct {
	Path            string           `json:"path" validate:"required,max=20"`
	Name            string           `json:"name" validate:"required,max=60"`
	WritePermission model.Permission `json:"write_permission" validate:"omitempty,permission"`
	CreateUserID    uint64           `json:"create_user_id" validate:"required"`
}

type UpdateBoardInput struct {
	Path            *string           `json:"path" validate:"omitempty,max=20"`
	Name            *string           `json:"name" validate:"omitempty,min=1,max=60"`
	WritePermission *model.Permission `json:"write_permission" validate:"omitempty,permission"`
}

func NewBoardService(db *gorm.DB, cache *redis.VoteCacheRepository, log *zap.Logger) *BoardService {
	return &BoardService{
		repo:  &mysql.BoardRepository{DB: db},
		cache: cache,
		log:   log,
	}
}

// CreateBoard path 先清洗再校验，清洗后为空视为校验失败
func (s *BoardService) CreateBoard(ctx context.Context, in CreateBoardInput) (*model.Board, error) {
	in.Path = model.SanitizePath(in.Path)
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}

	b := &model.Board{
		Path:            in.Path,
		Name:            in.Name,
		WritePermission: in.WritePermission,
		CreateUserID:    in.CreateUserID,
	}
	if b.WritePermission == "" {
		b.WritePermission = model.PermissionNormal
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("board created", zap.String("path", b.Path), zap.Uint64("owner", b.CreateUserID))
	return b, nil
}

func (s *BoardService) GetBoard(ctx context.Context, path string) (*model.Board, error) {
	return s.repo.FindByPath(ctx, path)
}

// UpdateBoard 修改 path 会连带迁移帖子
func (s *BoardService) UpdateBoard(ctx context.Context, path string, in UpdateBoardInput) (*model.Board, error) {
	var newPath string
	if in.Path != nil {
		newPath = model.SanitizePath(*in.Path)
		if newPath == "" {
			return nil, pkg.NewValidationError("path", "is required")
		}
		in.Path = &newPath
	}
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.WritePermission != nil {
		fields["write_permission"] = *in.WritePermission
	}

	b, err := s.repo.Update(ctx, path, newPath, fields)
	if err != nil {
		return nil, err
	}
	if b.Path != path {
		s.log.Info("board renamed", zap.String("from", path), zap.String("to", b.Path))
	}
	return b, nil
}

// DeleteBoard 级联删除后清理被删帖子的计数缓存
func (s *BoardService) DeleteBoard(ctx context.Context, path string) error {
	postIDs, err := s.repo.Delete(ctx, path)
	if err != nil {
		return err
	}
	invalidateCounts(ctx, s.cache, s.log, postIDs)
	s.log.Info("board deleted", zap.String("path", path), zap.Int("posts_deleted", len(postIDs)))
	return nil
}

// PostCount 版块下的帖子数，实时计算
func (s *BoardService) PostCount(ctx context.Context, path string) (int64, error) {
	if _, err := s.repo.FindByPath(ctx, path); err != nil {
		return 0, err
	}
	return s.repo.CountPosts(ctx, path)
}

func (s *BoardService) ListBoards(ctx context.Context, f mysql.BoardFilter, page, size int) ([]model.Board, error) {
	if f.WritePermission != "" && !f.WritePermission.Valid() {
		return nil, pkg.NewValidationError("write_permission", "must be one of SUPER, STAFF, NORMAL")
	}
	offset, limit := pageOffset(page, size)
	return s.repo.List(ctx, f, offset, limit)
}
