package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"retail_sync_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ItemRepository 商品仓储接口
type ItemRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter ItemFilter) ([]model.Item, int64, error)

	// 身份查询
	// Shopify 商品 ID 的两种写法 (纯数字 / gid://) 必须同时命中，
	// 结果按创建时间升序排列，最早一条是权威记录
	FindByShopifyProductID(ctx context.Context, storeID int64, numericID, gid string) ([]model.Item, error)
	// 库存复合键：inventory_item_id 与 location_id 必须同时匹配
	FindByInventoryKey(ctx context.Context, inventoryItemID, locationID string) (*model.Item, error)
	FindByPaperclipID(ctx context.Context, storeID int64, marketplaceID string) (*model.Item, error)
	// 未推送到 Paperclip 的活跃商品 (marketplace_id 为空)
	ListUnsynced(ctx context.Context, storeID int64, limit int) ([]model.Item, error)

	// 图片操作
	GetImagesByItemID(ctx context.Context, itemID int64) ([]model.ItemImage, error)
	CreateImage(ctx context.Context, image *model.ItemImage) error
	UpdateImage(ctx context.Context, image *model.ItemImage) error
	DeleteImage(ctx context.Context, id int64) error
	DeleteImagesByItemID(ctx context.Context, itemID int64) error
	BatchUpsertImages(ctx context.Context, images []model.ItemImage) error

	// 事务
	WithTx(tx *gorm.DB) ItemRepository
	Transaction(ctx context.Context, fn func(txRepo ItemRepository) error) error
}

// ==================== 过滤条件 ====================

// ItemFilter 商品列表过滤条件
type ItemFilter struct {
	StoreID  int64
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository 创建商品仓储
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Category").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Omit("Images", "Category", "Store").Save(item).Error
}

func (r *itemRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *itemRepo) List(ctx context.Context, filter ItemFilter) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Item{})

	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status != ?", model.ItemStatusDeleted)
	}
	if filter.Keyword != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("updated_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&items).Error

	return items, total, err
}

func (r *itemRepo) FindByShopifyProductID(ctx context.Context, storeID int64, numericID, gid string) ([]model.Item, error) {
	var items []model.Item
	query := r.db.WithContext(ctx).
		Where("status != ?", model.ItemStatusDeleted).
		Where("shopify_product_id = ? OR shopify_product_id = ?", numericID, gid).
		Order("created_at ASC")
	if storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByInventoryKey(ctx context.Context, inventoryItemID, locationID string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("shopify_inventory_item_id = ? AND shopify_location_id = ?", inventoryItemID, locationID).
		Where("status != ?", model.ItemStatusDeleted).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByPaperclipID(ctx context.Context, storeID int64, marketplaceID string) (*model.Item, error) {
	var item model.Item
	query := r.db.WithContext(ctx).
		Where("paperclip_marketplace_id = ?", marketplaceID)
	if storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) ListUnsynced(ctx context.Context, storeID int64, limit int) ([]model.Item, error) {
	var items []model.Item
	query := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Category").
		Where("store_id = ?", storeID).
		Where("status = ?", model.ItemStatusActive).
		Where("paperclip_marketplace_id IS NULL").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *itemRepo) GetImagesByItemID(ctx context.Context, itemID int64) ([]model.ItemImage, error) {
	var images []model.ItemImage
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("display_order ASC").
		Find(&images).Error
	return images, err
}

func (r *itemRepo) CreateImage(ctx context.Context, image *model.ItemImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *itemRepo) UpdateImage(ctx context.Context, image *model.ItemImage) error {
	return r.db.WithContext(ctx).Save(image).Error
}

func (r *itemRepo) DeleteImage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.ItemImage{}, id).Error
}

func (r *itemRepo) DeleteImagesByItemID(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("item_id = ?", itemID).
		Delete(&model.ItemImage{}).Error
}

func (r *itemRepo) BatchUpsertImages(ctx context.Context, images []model.ItemImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "shopify_media_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"image_url", "display_order", "updated_at",
		}),
	}).Create(&images).Error
}

func (r *itemRepo) WithTx(tx *gorm.DB) ItemRepository {
	return &itemRepo{db: tx}
}

func (r *itemRepo) Transaction(ctx context.Context, fn func(txRepo ItemRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
