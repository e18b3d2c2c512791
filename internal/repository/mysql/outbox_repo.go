package mysql

import (
	"context"

	"gorm.io/gorm"

	"Lee_Forum/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// List 取待投递和投递失败且未超过重试上限的事件，按 id 顺序
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.VoteOutbox, error) {
	var list []model.VoteOutbox
	err := r.DB.WithContext(ctx).
		Where("status IN ? AND retry < ?", []int8{model.OutboxPending, model.OutboxFailed}, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.VoteOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// MarkFailed 标记失败并累加重试次数
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.VoteOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}
