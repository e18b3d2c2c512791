package mysql

import (
	"context"

	"gorm.io/gorm"

	"Lee_Forum/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

type PostFilter struct {
	BoardPath string
}

// Create 版块与作者都必须存在
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b model.Board
		if err := tx.Select("path").First(&b, "path = ?", post.BoardPath).Error; err != nil {
			return wrapErr(err, "board %q", post.BoardPath)
		}
		if err := userExists(tx, post.CreateUserID); err != nil {
			return err
		}
		return wrapErr(tx.Create(post).Error, "post %q", post.Title)
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, wrapErr(err, "post %d", id)
	}
	return &post, nil
}

func (r *PostRepository) Update(ctx context.Context, id uint64, fields map[string]any) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return wrapErr(err, "post %d", id)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&post).Updates(fields).Error; err != nil {
			return wrapErr(err, "update post %d", id)
		}
		return wrapErr(tx.First(&post, id).Error, "post %d", id)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete 先删投票再删帖子
func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return wrapErr(gorm.ErrRecordNotFound, "post %d", id)
		}
		return tx.Where("post_id = ?", id).Delete(&model.Vote{}).Error
	})
}

// Counts 只读取计数列
func (r *PostRepository) Counts(ctx context.Context, id uint64) (up, down uint64, err error) {
	var p model.Post
	if err = r.DB.WithContext(ctx).Select("id", "upvote", "downvote").First(&p, id).Error; err != nil {
		return 0, 0, wrapErr(err, "post %d", id)
	}
	return p.Upvote, p.Downvote, nil
}

func (r *PostRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.WithContext(ctx).Model(&model.Post{})
	if f.BoardPath != "" {
		q = q.Where("board_path = ?", f.BoardPath)
	}
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}
