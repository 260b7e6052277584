package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"retail_sync_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// WebhookLockRepository webhook 去重锁仓储
// 抢锁是 webhook_id 唯一索引上的 INSERT ... ON CONFLICT DO NOTHING：
// RowsAffected=1 表示持锁，=0 表示撞上了重复投递
type WebhookLockRepository interface {
	// TryAcquire 原子抢锁。返回 true 表示插入成功 (本次投递持锁)
	TryAcquire(ctx context.Context, lock *model.WebhookLock) (bool, error)
	GetByWebhookID(ctx context.Context, webhookID string) (*model.WebhookLock, error)
	// Release 处理失败时删除锁行，放行下一次投递
	Release(ctx context.Context, webhookID string) error
	// MarkCompleted 处理成功后保留锁行，在去重窗口内继续拦截重放
	MarkCompleted(ctx context.Context, webhookID string) error
	// DeleteOlderThan 清理陈旧锁 (超过去重窗口的 processing 残留)
	DeleteOlderThan(ctx context.Context, webhookID string, before time.Time) (int64, error)
	// PurgeBefore 定时任务批量清理过期锁行
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// ==================== 仓储实现 ====================

type webhookLockRepo struct {
	db *gorm.DB
}

// NewWebhookLockRepository 创建去重锁仓储
func NewWebhookLockRepository(db *gorm.DB) WebhookLockRepository {
	return &webhookLockRepo{db: db}
}

func (r *webhookLockRepo) TryAcquire(ctx context.Context, lock *model.WebhookLock) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "webhook_id"}},
		DoNothing: true,
	}).Create(lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *webhookLockRepo) GetByWebhookID(ctx context.Context, webhookID string) (*model.WebhookLock, error) {
	var lock model.WebhookLock
	err := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		First(&lock).Error
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *webhookLockRepo) Release(ctx context.Context, webhookID string) error {
	return r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Delete(&model.WebhookLock{}).Error
}

func (r *webhookLockRepo) MarkCompleted(ctx context.Context, webhookID string) error {
	return r.db.WithContext(ctx).
		Model(&model.WebhookLock{}).
		Where("webhook_id = ?", webhookID).
		Update("status", model.WebhookLockCompleted).Error
}

func (r *webhookLockRepo) DeleteOlderThan(ctx context.Context, webhookID string, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("webhook_id = ? AND created_at < ?", webhookID, before).
		Delete(&model.WebhookLock{})
	return result.RowsAffected, result.Error
}

func (r *webhookLockRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&model.WebhookLock{})
	return result.RowsAffected, result.Error
}
