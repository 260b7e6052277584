package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== 测试辅助 ====================

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&model.Item{}, &model.ItemImage{})
	return db
}

// ==================== 双编码身份 ====================

func TestResolve_MatchesBothEncodings(t *testing.T) {
	db := setupIdentityTestDB(t)
	svc := NewIdentityService(repository.NewItemRepository(db))
	ctx := context.Background()

	// 本地存的是 GID 写法
	item := model.Item{
		StoreID:          1,
		Title:            "GID encoded",
		ShopifyProductID: shopify.ProductGID(12345),
		Status:           model.ItemStatusActive,
	}
	db.Create(&item)

	// 按纯数字写法也必须命中
	found, err := svc.Resolve(ctx, 1, "12345")
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("数字写法未命中 GID 记录")
	}

	// 反方向：本地存数字，按 GID 查
	item2 := model.Item{
		StoreID:          1,
		Title:            "Numeric encoded",
		ShopifyProductID: "67890",
		Status:           model.ItemStatusActive,
	}
	db.Create(&item2)

	found, err = svc.Resolve(ctx, 1, shopify.ProductGID(67890))
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if found == nil || found.ID != item2.ID {
		t.Fatalf("GID 写法未命中数字记录")
	}
}

func TestResolve_NoMatch(t *testing.T) {
	db := setupIdentityTestDB(t)
	svc := NewIdentityService(repository.NewItemRepository(db))

	found, err := svc.Resolve(context.Background(), 1, "99999")
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if found != nil {
		t.Errorf("无记录时应返回 nil, got id=%d", found.ID)
	}
}

// ==================== 重复记录自愈 ====================

func TestResolve_DeduplicatesKeepEarliest(t *testing.T) {
	db := setupIdentityTestDB(t)
	svc := NewIdentityService(repository.NewItemRepository(db))
	ctx := context.Background()

	// 同一外部商品的两种编码落成了两条记录 (历史脏数据)
	first := model.Item{
		StoreID:          1,
		Title:            "earliest",
		ShopifyProductID: "12345",
		Status:           model.ItemStatusActive,
	}
	db.Create(&first)

	second := model.Item{
		StoreID:          1,
		Title:            "duplicate",
		ShopifyProductID: shopify.ProductGID(12345),
		Status:           model.ItemStatusActive,
	}
	db.Create(&second)

	found, err := svc.Resolve(ctx, 1, "12345")
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if found == nil || found.ID != first.ID {
		t.Fatalf("应保留最早记录 id=%d", first.ID)
	}

	// 后来的记录被软删并打 duplicated 标记
	var extra model.Item
	if err := db.Unscoped().First(&extra, second.ID).Error; err != nil {
		t.Fatalf("读取重复记录失败: %v", err)
	}
	if extra.Status != model.ItemStatusDeleted {
		t.Errorf("重复记录 status = %q, want deleted", extra.Status)
	}
	if !extra.Duplicated {
		t.Errorf("重复记录未打 duplicated 标记")
	}
	if !extra.DeletedAt.Valid {
		t.Errorf("重复记录未软删")
	}

	// 自愈后再次解析应只剩一条
	found2, err := svc.Resolve(ctx, 1, shopify.ProductGID(12345))
	if err != nil {
		t.Fatalf("二次 Resolve 失败: %v", err)
	}
	if found2 == nil || found2.ID != first.ID {
		t.Fatalf("自愈后解析结果变化")
	}
}

// ==================== 软删 ====================

func TestSoftDelete_Idempotent(t *testing.T) {
	db := setupIdentityTestDB(t)
	svc := NewIdentityService(repository.NewItemRepository(db))
	ctx := context.Background()

	item := model.Item{
		StoreID:          1,
		Title:            "to delete",
		ShopifyProductID: "12345",
		Status:           model.ItemStatusActive,
	}
	db.Create(&item)

	n, err := svc.SoftDelete(ctx, 1, "12345")
	if err != nil {
		t.Fatalf("SoftDelete 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("软删条数 = %d, want 1", n)
	}

	var deleted model.Item
	if err := db.Unscoped().First(&deleted, item.ID).Error; err != nil {
		t.Fatalf("读取软删记录失败: %v", err)
	}
	if deleted.Status != model.ItemStatusDeleted {
		t.Errorf("status = %q, want deleted", deleted.Status)
	}

	// 重复投递不报错，命中 0 条
	n, err = svc.SoftDelete(ctx, 1, "12345")
	if err != nil {
		t.Fatalf("重复 SoftDelete 失败: %v", err)
	}
	if n != 0 {
		t.Errorf("重复软删条数 = %d, want 0", n)
	}
}
