package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookLock 状态常量
const (
	WebhookLockProcessing = "processing"
	WebhookLockCompleted  = "completed"
)

// WebhookLock webhook 去重锁
// webhook_id 唯一索引是并发安全的根基：抢锁就是 INSERT ... ON CONFLICT DO NOTHING，
// 插入成功即持锁，冲突即重复投递。处理失败时删除锁行放行重试，
// 成功时置 completed 保留在去重窗口内
type WebhookLock struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	WebhookID string `gorm:"size:255;uniqueIndex;not null" json:"webhook_id"`
	Topic     string `gorm:"size:100" json:"topic"`
	Shop      string `gorm:"size:255" json:"shop"`
	ProductID string `gorm:"size:255" json:"product_id"`

	Status string `gorm:"size:20;default:'processing'" json:"status"`

	// 原始载荷快照，排障用
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
}

func (WebhookLock) TableName() string {
	return "webhook_locks"
}
