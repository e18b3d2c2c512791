package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
)

type VoteRepository struct {
	DB *gorm.DB
}

// VoteFilter 零值字段不参与过滤
type VoteFilter struct {
	UserID    uint64
	PostID    uint64
	IsUpvoted *bool
}

// VoteDetail 展示投票所需的关联字段
type VoteDetail struct {
	VoteID    uint64
	Username  string
	Title     string
	BoardName string
	IsUpvoted bool
}

func (d *VoteDetail) Label() string {
	return model.VoteLabel(d.Username, d.Title, d.BoardName, d.IsUpvoted)
}

// Cast 写投票记录并给帖子计数 +1，两者同一事务
func (r *VoteRepository) Cast(ctx context.Context, vote *model.Vote) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住帖子行，同一帖子的投票串行化
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, vote.PostID).Error; err != nil {
			return wrapErr(err, "post %d", vote.PostID)
		}
		if err := userExists(tx, vote.UserID); err != nil {
			return err
		}

		// 预检查只为了少做一次无效的计数更新，真正的唯一性由唯一索引保证
		var n int64
		if err := tx.Model(&model.Vote{}).
			Where("user_id = ? AND post_id = ?", vote.UserID, vote.PostID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: vote user=%d post=%d", pkg.ErrUniqueViolation, vote.UserID, vote.PostID)
		}

		col := vote.CounterColumn()
		res := tx.Model(&model.Post{}).Where("id = ?", vote.PostID).
			UpdateColumn(col, gorm.Expr(col+" + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: post %d", pkg.ErrNotFound, vote.PostID)
		}

		if err := tx.Create(vote).Error; err != nil {
			return wrapErr(err, "vote user=%d post=%d", vote.UserID, vote.PostID)
		}
		return insertOutbox(tx, model.EventVoteCast, vote)
	})
}

// Retract 删除投票并回退计数，计数不会低于 0
func (r *VoteRepository) Retract(ctx context.Context, userID, postID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, postID).Error; err != nil {
			return wrapErr(err, "post %d", postID)
		}
		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error; err != nil {
			return wrapErr(err, "vote user=%d post=%d", userID, postID)
		}
		if err := tx.Delete(&model.Vote{}, vote.ID).Error; err != nil {
			return err
		}
		if err := adjustCounter(tx, vote.CounterColumn(), -1, postID); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventVoteRetracted, &vote)
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *VoteRepository) FindByID(ctx context.Context, id uint64) (*model.Vote, error) {
	var vote model.Vote
	if err := r.DB.WithContext(ctx).First(&vote, id).Error; err != nil {
		return nil, wrapErr(err, "vote %d", id)
	}
	return &vote, nil
}

func (r *VoteRepository) FindByPair(ctx context.Context, userID, postID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if err != nil {
		return nil, wrapErr(err, "vote user=%d post=%d", userID, postID)
	}
	return &vote, nil
}

func (r *VoteRepository) List(ctx context.Context, f VoteFilter, offset, limit int) ([]model.Vote, error) {
	var list []model.Vote
	q := r.DB.WithContext(ctx).Model(&model.Vote{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.PostID != 0 {
		q = q.Where("post_id = ?", f.PostID)
	}
	if f.IsUpvoted != nil {
		q = q.Where("is_upvoted = ?", *f.IsUpvoted)
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// Describe 连表取出用户名、标题、版块名
func (r *VoteRepository) Describe(ctx context.Context, id uint64) (*VoteDetail, error) {
	var d VoteDetail
	err := r.DB.WithContext(ctx).
		Table("voted_posts AS v").
		Select("v.id AS vote_id, u.username AS username, p.title AS title, b.name AS board_name, v.is_upvoted AS is_upvoted").
		Joins("JOIN users u ON u.id = v.user_id").
		Joins("JOIN posts p ON p.id = v.post_id").
		Joins("JOIN boards b ON b.path = p.board_path").
		Where("v.id = ?", id).
		Take(&d).Error
	if err != nil {
		return nil, wrapErr(err, "vote %d", id)
	}
	return &d, nil
}

// insertOutbox 写投票事件，和业务写入同一事务
func insertOutbox(tx *gorm.DB, event string, vote *model.Vote) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(map[string]any{
		"event_id":   eventID,
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"vote_id":    vote.ID,
		"user_id":    vote.UserID,
		"post_id":    vote.PostID,
		"is_upvoted": vote.IsUpvoted,
	})
	if err != nil {
		return err
	}
	ob := &model.VoteOutbox{
		EventID:   eventID,
		EventType: event,
		UserID:    vote.UserID,
		PostID:    vote.PostID,
		IsUpvoted: vote.IsUpvoted,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}
	return tx.Create(ob).Error
}
