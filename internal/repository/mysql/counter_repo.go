package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/model"
)

// CounterRepository 帖子计数对账
type CounterRepository struct {
	DB *gorm.DB
}

type CounterRow struct {
	ID       uint64
	Upvote   uint64
	Downvote uint64
}

// Scan 按 id 游标分批读取帖子计数，返回下一批的起点
func (r *CounterRepository) Scan(ctx context.Context, lastID uint64, batchSize int) ([]CounterRow, uint64, error) {
	var list []CounterRow
	err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Select("id", "upvote", "downvote").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, lastID, err
	}
	return list, list[len(list)-1].ID, nil
}

// Reconcile 锁住帖子后用投票表的真实计数覆盖存储值，返回是否有修正
func (r *CounterRepository) Reconcile(ctx context.Context, postID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "upvote", "downvote").First(&post, postID).Error; err != nil {
			return wrapErr(err, "post %d", postID)
		}
		up, down, err := realCounts(tx, postID)
		if err != nil {
			return err
		}
		if up == post.Upvote && down == post.Downvote {
			return nil
		}
		changed = true
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumns(map[string]any{"upvote": up, "downvote": down}).Error
	})
	return changed, err
}

func realCounts(tx *gorm.DB, postID uint64) (up, down uint64, err error) {
	var rows []struct {
		IsUpvoted bool
		N         uint64
	}
	err = tx.Model(&model.Vote{}).
		Select("is_upvoted, COUNT(*) AS n").
		Where("post_id = ?", postID).
		Group("is_upvoted").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	for _, row := range rows {
		if row.IsUpvoted {
			up = row.N
		} else {
			down = row.N
		}
	}
	return up, down, nil
}
