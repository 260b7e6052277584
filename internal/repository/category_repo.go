package repository

import (
	"context"

	"gorm.io/gorm"

	"retail_sync_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetByPaperclipID(ctx context.Context, marketplaceID string) (*model.Category, error)

	// 树查询：每次分类映射前重新拉取，映射期间树可能被后台更新
	ListRoots(ctx context.Context, storeID int64) ([]model.Category, error)
	ListChildren(ctx context.Context, parentID int64) ([]model.Category, error)
	ListByStore(ctx context.Context, storeID int64) ([]model.Category, error)
}

// ==================== 仓储实现 ====================

type categoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) GetByPaperclipID(ctx context.Context, marketplaceID string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("paperclip_marketplace_id = ?", marketplaceID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) ListRoots(ctx context.Context, storeID int64) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND parent_id IS NULL", storeID).
		Order("display_order ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) ListChildren(ctx context.Context, parentID int64) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("display_order ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) ListByStore(ctx context.Context, storeID int64) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("parent_id ASC NULLS FIRST, display_order ASC").
		Find(&categories).Error
	return categories, err
}
