package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retail_sync_v1_202608/internal/model"
)

// ==================== 测试辅助 ====================

func setupLockTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&model.WebhookLock{})
	return db
}

// ==================== 原子抢锁 ====================

func TestTryAcquire_ConflictSemantics(t *testing.T) {
	db := setupLockTestDB(t)
	repo := NewWebhookLockRepository(db)
	ctx := context.Background()

	acquired, err := repo.TryAcquire(ctx, &model.WebhookLock{
		WebhookID: "product-1",
		Status:    model.WebhookLockProcessing,
	})
	if err != nil {
		t.Fatalf("TryAcquire 失败: %v", err)
	}
	if !acquired {
		t.Fatalf("首次插入应持锁")
	}

	// 同 webhook_id 二次插入：DO NOTHING, RowsAffected=0
	acquired, err = repo.TryAcquire(ctx, &model.WebhookLock{
		WebhookID: "product-1",
		Status:    model.WebhookLockProcessing,
	})
	if err != nil {
		t.Fatalf("冲突插入报错: %v", err)
	}
	if acquired {
		t.Errorf("冲突插入不应持锁")
	}

	// 只有一行
	var count int64
	db.Model(&model.WebhookLock{}).Count(&count)
	if count != 1 {
		t.Errorf("锁行数 = %d, want 1", count)
	}
}

func TestRelease_AllowsReacquire(t *testing.T) {
	db := setupLockTestDB(t)
	repo := NewWebhookLockRepository(db)
	ctx := context.Background()

	repo.TryAcquire(ctx, &model.WebhookLock{WebhookID: "product-2"})

	if err := repo.Release(ctx, "product-2"); err != nil {
		t.Fatalf("Release 失败: %v", err)
	}

	acquired, err := repo.TryAcquire(ctx, &model.WebhookLock{WebhookID: "product-2"})
	if err != nil || !acquired {
		t.Errorf("释放后重抢应成功: acquired=%v err=%v", acquired, err)
	}
}

func TestMarkCompleted(t *testing.T) {
	db := setupLockTestDB(t)
	repo := NewWebhookLockRepository(db)
	ctx := context.Background()

	repo.TryAcquire(ctx, &model.WebhookLock{WebhookID: "product-3"})
	if err := repo.MarkCompleted(ctx, "product-3"); err != nil {
		t.Fatalf("MarkCompleted 失败: %v", err)
	}

	lock, err := repo.GetByWebhookID(ctx, "product-3")
	if err != nil {
		t.Fatalf("GetByWebhookID 失败: %v", err)
	}
	if lock.Status != model.WebhookLockCompleted {
		t.Errorf("status = %q, want completed", lock.Status)
	}
}

// ==================== 清理 ====================

func TestDeleteOlderThan_TimeGuard(t *testing.T) {
	db := setupLockTestDB(t)
	repo := NewWebhookLockRepository(db)
	ctx := context.Background()

	fresh := model.WebhookLock{WebhookID: "product-4", CreatedAt: time.Now()}
	db.Create(&fresh)

	// 截止时间在锁创建之前：带时间条件删不能误删新锁
	n, err := repo.DeleteOlderThan(ctx, "product-4", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan 失败: %v", err)
	}
	if n != 0 {
		t.Errorf("新锁不应被删, 删了 %d 行", n)
	}

	// 截止时间在锁创建之后才删
	n, err = repo.DeleteOlderThan(ctx, "product-4", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("过期锁应被删, 删了 %d 行", n)
	}
}

func TestPurgeBefore(t *testing.T) {
	db := setupLockTestDB(t)
	repo := NewWebhookLockRepository(db)
	ctx := context.Background()

	db.Create(&model.WebhookLock{WebhookID: "old-1", CreatedAt: time.Now().Add(-2 * time.Hour)})
	db.Create(&model.WebhookLock{WebhookID: "old-2", CreatedAt: time.Now().Add(-2 * time.Hour)})
	db.Create(&model.WebhookLock{WebhookID: "fresh", CreatedAt: time.Now()})

	n, err := repo.PurgeBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeBefore 失败: %v", err)
	}
	if n != 2 {
		t.Errorf("清理条数 = %d, want 2", n)
	}

	var count int64
	db.Model(&model.WebhookLock{}).Count(&count)
	if count != 1 {
		t.Errorf("剩余锁行数 = %d, want 1", count)
	}
}
