package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
)

type BoardRepository struct {
	DB *gorm.DB
}

type BoardFilter struct {
	WritePermission model.Permission
}

// Create 创建者必须存在；path 冲突由主键约束报出
func (r *BoardRepository) Create(ctx context.Context, b *model.Board) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, b.CreateUserID); err != nil {
			return err
		}
		return wrapErr(tx.Create(b).Error, "board %q", b.Path)
	})
}

func (r *BoardRepository) FindByPath(ctx context.Context, path string) (*model.Board, error) {
	var b model.Board
	if err := r.DB.WithContext(ctx).First(&b, "path = ?", path).Error; err != nil {
		return nil, wrapErr(err, "board %q", path)
	}
	return &b, nil
}

// Update newPath 非空且与原值不同时整体迁移主键：新建行、帖子改指向、删除旧行
func (r *BoardRepository) Update(ctx context.Context, path, newPath string, fields map[string]any) (*model.Board, error) {
	var b model.Board
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "path = ?", path).Error; err != nil {
			return wrapErr(err, "board %q", path)
		}

		if newPath != "" && newPath != path {
			var n int64
			if err := tx.Model(&model.Board{}).Where("path = ?", newPath).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: board %q", pkg.ErrUniqueViolation, newPath)
			}

			moved := b
			moved.Path = newPath
			moved.UpdatedAt = time.Now()
			if err := tx.Create(&moved).Error; err != nil {
				return wrapErr(err, "board %q", newPath)
			}
			if err := tx.Model(&model.Post{}).Where("board_path = ?", path).
				UpdateColumn("board_path", newPath).Error; err != nil {
				return err
			}
			if err := tx.Delete(&model.Board{}, "path = ?", path).Error; err != nil {
				return err
			}
			path = newPath
		}

		if len(fields) > 0 {
			if err := tx.Model(&model.Board{}).Where("path = ?", path).Updates(fields).Error; err != nil {
				return wrapErr(err, "update board %q", path)
			}
		}
		// b 的主键仍是旧值，重新读取要用新变量，否则 gorm 会把旧主键带进条件
		var fresh model.Board
		if err := tx.First(&fresh, "path = ?", path).Error; err != nil {
			return wrapErr(err, "board %q", path)
		}
		b = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete 级联删除：投票 -> 帖子 -> 版块，返回被删除的帖子 id
func (r *BoardRepository) Delete(ctx context.Context, path string) ([]uint64, error) {
	var postIDs []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b model.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "path = ?", path).Error; err != nil {
			return wrapErr(err, "board %q", path)
		}

		if err := tx.Model(&model.Post{}).Where("board_path = ?", path).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&model.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&model.Post{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Board{}, "path = ?", path).Error
	})
	if err != nil {
		return nil, err
	}
	return postIDs, nil
}

// CountPosts 实时统计，不存储
func (r *BoardRepository) CountPosts(ctx context.Context, path string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("board_path = ?", path).Count(&n).Error
	return n, err
}

func (r *BoardRepository) List(ctx context.Context, f BoardFilter, offset, limit int) ([]model.Board, error) {
	var list []model.Board
	q := r.DB.WithContext(ctx).Model(&model.Board{})
	if f.WritePermission != "" {
		q = q.Where("write_permission = ?", f.WritePermission)
	}
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

func userExists(tx *gorm.DB, id uint64) error {
	var u model.User
	return wrapErr(tx.Select("id").First(&u, id).Error, "user %d", id)
}
