package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/repository/redis"
)

type UserService struct {
	repo  *mysql.UserRepository
	cache *redis.VoteCacheRepository
	log   *zap.Logger
}

type CreateUserInput struct {
	Username   string           `json:"username" validate:"required,max=150,username"`
	Email      string           `json:"email" validate:"omitempty,max=254,email"`
	Password   string           `json:"password" validate:"omitempty,min=6,max=128"`
	Bio        string           `json:"bio" validate:"max=100"`
	Avatar     string           `json:"avatar" validate:"max=255"`
	Permission model.Permission `json:"permission" validate:"omitempty,permission"`
	IsActive   *bool            `json:"is_active"`
}

// UpdateUserInput nil 字段不修改
type UpdateUserInput struct {
	Email      *string           `json:"email" validate:"omitempty,max=254,email"`
	Password   *string           `json:"password" validate:"omitempty,min=6,max=128"`
	Bio        *string           `json:"bio" validate:"omitempty,max=100"`
	Avatar     *string           `json:"avatar" validate:"omitempty,min=1,max=255"`
	Permission *model.Permission `json:"permission" validate:"omitempty,permission"`
	IsActive   *bool             `json:"is_active"`
}

func NewUserService(db *gorm.DB, cache *redis.VoteCacheRepository, log *zap.Logger) *UserService {
	return &UserService{
		repo:  &mysql.UserRepository{DB: db},
		cache: cache,
		log:   log,
	}
}

// CreateUser 未指定的字段取默认值：NORMAL、占位头像、空简介、启用
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:   in.Username,
		Email:      in.Email,
		Bio:        in.Bio,
		Avatar:     in.Avatar,
		Permission: in.Permission,
		IsActive:   true,
	}
	if user.Avatar == "" {
		user.Avatar = model.DefaultAvatar
	}
	if user.Permission == "" {
		user.Permission = model.PermissionNormal
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, in UpdateUserInput) (*model.User, error) {
	if err := pkg.Validate(in); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.Permission != nil {
		fields["permission"] = *in.Permission
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = string(hash)
	}
	return s.repo.Update(ctx, id, fields)
}

// DeleteUser 级联删除后清理被删除或被回退计数的帖子缓存
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	touched, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	invalidateCounts(ctx, s.cache, s.log, touched)
	s.log.Info("user deleted", zap.Uint64("user_id", id), zap.Int("posts_touched", len(touched)))
	return nil
}

// invalidateCounts 删除失败只记日志，缓存最终靠 TTL 过期
func invalidateCounts(ctx context.Context, cache *redis.VoteCacheRepository, log *zap.Logger, postIDs []uint64) {
	for _, pid := range postIDs {
		if err := cache.Delete(ctx, pid); err != nil {
			log.Warn("vote cache invalidate failed", zap.Uint64("post_id", pid), zap.Error(err))
		}
	}
}

// VerifyPassword 只校验口令，不签发会话
func (s *UserService) VerifyPassword(ctx context.Context, username, raw string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(raw)) != nil {
		return nil, pkg.NewValidationError("password", "is incorrect")
	}
	if !user.IsActive {
		return nil, pkg.NewValidationError("username", "account is inactive")
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, f mysql.UserFilter, page, size int) ([]model.User, error) {
	if f.Permission != "" && !f.Permission.Valid() {
		return nil, pkg.NewValidationError("permission", "must be one of SUPER, STAFF, NORMAL")
	}
	offset, limit := pageOffset(page, size)
	return s.repo.List(ctx, f, offset, limit)
}
