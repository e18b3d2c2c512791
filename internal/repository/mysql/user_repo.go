package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/model"
)

type UserRepository struct {
	DB *gorm.DB
}

// UserFilter 管理后台按字段等值过滤，零值表示不过滤
type UserFilter struct {
	Permission model.Permission
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return wrapErr(r.DB.WithContext(ctx).Create(user).Error, "user %q", user.Username)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, wrapErr(err, "user %d", id)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrapErr(err, "user %q", username)
	}
	return &user, nil
}

// Update 按字段更新并返回最新记录
func (r *UserRepository) Update(ctx context.Context, id uint64, fields map[string]any) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return wrapErr(err, "user %d", id)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(fields).Error; err != nil {
			return wrapErr(err, "update user %d", id)
		}
		return wrapErr(tx.First(&user, id).Error, "user %d", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete 级联删除，顺序：计数回退 -> 投票 -> 帖子 -> 版块 -> 用户。
// 返回被删除和计数被回退的帖子 id，供调用方清理缓存
func (r *UserRepository) Delete(ctx context.Context, id uint64) ([]uint64, error) {
	var touched []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			return wrapErr(err, "user %d", id)
		}

		var boardPaths []string
		if err := tx.Model(&model.Board{}).Where("create_user_id = ?", id).Pluck("path", &boardPaths).Error; err != nil {
			return err
		}

		// 用户自己发的帖子 + 用户名下版块里的所有帖子
		q := tx.Model(&model.Post{}).Where("create_user_id = ?", id)
		if len(boardPaths) > 0 {
			q = q.Or("board_path IN ?", boardPaths)
		}
		var postIDs []uint64
		if err := q.Pluck("id", &postIDs).Error; err != nil {
			return err
		}

		// 保留下来的帖子需要撤销该用户投过的票
		var votes []model.Vote
		if err := tx.Where("user_id = ?", id).Find(&votes).Error; err != nil {
			return err
		}
		doomed := make(map[uint64]struct{}, len(postIDs))
		for _, pid := range postIDs {
			doomed[pid] = struct{}{}
		}
		var ups, downs []uint64
		for _, v := range votes {
			if _, ok := doomed[v.PostID]; ok {
				continue
			}
			if v.IsUpvoted {
				ups = append(ups, v.PostID)
			} else {
				downs = append(downs, v.PostID)
			}
		}
		touched = append(append(append(touched, postIDs...), ups...), downs...)
		if err := adjustCounter(tx, "upvote", -1, ups...); err != nil {
			return err
		}
		if err := adjustCounter(tx, "downvote", -1, downs...); err != nil {
			return err
		}

		vq := tx.Where("user_id = ?", id)
		if len(postIDs) > 0 {
			vq = vq.Or("post_id IN ?", postIDs)
		}
		if err := vq.Delete(&model.Vote{}).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("id IN ?", postIDs).Delete(&model.Post{}).Error; err != nil {
				return err
			}
		}
		if len(boardPaths) > 0 {
			if err := tx.Where("path IN ?", boardPaths).Delete(&model.Board{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (r *UserRepository) List(ctx context.Context, f UserFilter, offset, limit int) ([]model.User, error) {
	var list []model.User
	q := r.DB.WithContext(ctx).Model(&model.User{})
	if f.Permission != "" {
		q = q.Where("permission = ?", f.Permission)
	}
	err := q.Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}
