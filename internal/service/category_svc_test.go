package service

import (
	"context"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func setupCategoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&model.Category{})
	return db
}

// seedCategoryTree 造一棵三级树:
//
//	Clothing > Tops > T-Shirts
//	Clothing > Bottoms
//	Electronics > Phones
func seedCategoryTree(t *testing.T, db *gorm.DB, storeID int64) {
	clothing := model.Category{StoreID: storeID, Name: "Clothing", DisplayOrder: 0}
	electronics := model.Category{StoreID: storeID, Name: "Electronics", DisplayOrder: 1}
	if err := db.Create(&clothing).Error; err != nil {
		t.Fatalf("建根分类失败: %v", err)
	}
	if err := db.Create(&electronics).Error; err != nil {
		t.Fatalf("建根分类失败: %v", err)
	}

	tops := model.Category{StoreID: storeID, Name: "Tops", ParentID: &clothing.ID, DisplayOrder: 0}
	bottoms := model.Category{StoreID: storeID, Name: "Bottoms", ParentID: &clothing.ID, DisplayOrder: 1}
	db.Create(&tops)
	db.Create(&bottoms)

	tshirts := model.Category{StoreID: storeID, Name: "T-Shirts", ParentID: &tops.ID}
	phones := model.Category{StoreID: storeID, Name: "Phones", ParentID: &electronics.ID}
	db.Create(&tshirts)
	db.Create(&phones)
}

func loadTree(t *testing.T, db *gorm.DB, storeID int64) *categoryTree {
	repo := repository.NewCategoryRepository(db)
	categories, err := repo.ListByStore(context.Background(), storeID)
	if err != nil {
		t.Fatalf("拉取分类树失败: %v", err)
	}
	return buildCategoryTree(categories)
}

func categoryName(t *testing.T, db *gorm.DB, id *int64) string {
	if id == nil {
		return ""
	}
	var c model.Category
	if err := db.First(&c, *id).Error; err != nil {
		t.Fatalf("读取分类 %d 失败: %v", *id, err)
	}
	return c.Name
}

// ==================== 树匹配 ====================

func TestCategoryTree_ResolveExact(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)
	tree := loadTree(t, db, 1)

	id := tree.resolve("Clothing > Tops > T-Shirts")
	if got := categoryName(t, db, id); got != "T-Shirts" {
		t.Errorf("精确匹配落到 %q, want T-Shirts", got)
	}

	// 大小写不敏感
	id = tree.resolve("clothing > TOPS > t-shirts")
	if got := categoryName(t, db, id); got != "T-Shirts" {
		t.Errorf("忽略大小写匹配落到 %q, want T-Shirts", got)
	}
}

func TestCategoryTree_ResolvePartialDepth(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)
	tree := loadTree(t, db, 1)

	// 第三级落空时停在已命中的最深节点
	id := tree.resolve("Clothing > Tops > Hoodies")
	if got := categoryName(t, db, id); got != "Tops" {
		t.Errorf("部分路径落到 %q, want Tops", got)
	}
}

func TestCategoryTree_ResolveFuzzy(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)
	tree := loadTree(t, db, 1)

	// 精确遍全部落空，模糊遍按双向包含命中
	id := tree.resolve("Clothes > Top")
	if got := categoryName(t, db, id); got != "Tops" {
		t.Errorf("模糊匹配落到 %q, want Tops", got)
	}
}

func TestCategoryTree_ResolveFallbackFirstRoot(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)
	tree := loadTree(t, db, 1)

	// 全部落空兜底到 display_order 最靠前的根分类
	id := tree.resolve("Garden > Tools")
	if got := categoryName(t, db, id); got != "Clothing" {
		t.Errorf("兜底落到 %q, want Clothing", got)
	}

	// 空路径 (模型失败) 同样兜底
	id = tree.resolve("")
	if got := categoryName(t, db, id); got != "Clothing" {
		t.Errorf("空路径兜底落到 %q, want Clothing", got)
	}
}

func TestSplitPath_Truncate(t *testing.T) {
	parts := splitPath("A > B > C > D > E")
	if len(parts) != 3 {
		t.Fatalf("超过三级应截断, got %d 级", len(parts))
	}
	if parts[2] != "C" {
		t.Errorf("parts[2] = %q, want C", parts[2])
	}
}

// ==================== MapCategory ====================

func TestMapCategory_NoApiKeyFallsBack(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)

	// 无 API Key 时模型段直接跳过，走树兜底
	svc := NewCategoryService(&CategoryConfig{}, repository.NewCategoryRepository(db))

	id, err := svc.MapCategory(context.Background(), 1, ProductSummary{Title: "Random gadget"})
	if err != nil {
		t.Fatalf("MapCategory 失败: %v", err)
	}
	if got := categoryName(t, db, id); got != "Clothing" {
		t.Errorf("无模型兜底落到 %q, want Clothing", got)
	}
}

func TestMapCategory_EmptyTree(t *testing.T) {
	db := setupCategoryTestDB(t)

	svc := NewCategoryService(&CategoryConfig{}, repository.NewCategoryRepository(db))

	id, err := svc.MapCategory(context.Background(), 1, ProductSummary{Title: "Anything"})
	if err != nil {
		t.Fatalf("MapCategory 失败: %v", err)
	}
	if id != nil {
		t.Errorf("空树应返回 nil 分类, got %v", *id)
	}
}

// ==================== 树序列化 ====================

func TestCategoryTree_Serialize(t *testing.T) {
	db := setupCategoryTestDB(t)
	seedCategoryTree(t, db, 1)
	tree := loadTree(t, db, 1)

	out := tree.serialize()
	for _, line := range []string{
		"Clothing > Tops > T-Shirts",
		"Clothing > Bottoms",
		"Electronics > Phones",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("序列化缺少路径 %q:\n%s", line, out)
		}
	}
}
