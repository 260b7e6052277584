package model

import (
	"time"

	"github.com/lib/pq"
)

// Item 商品成色常量
// 本地固定枚举，Paperclip 侧是数字编码 (见 pkg/paperclip)
const (
	ConditionNew         = "New"
	ConditionRefurbished = "Refurbished"
	ConditionUsed        = "Used"
)

// Item 状态常量
const (
	ItemStatusActive  = "active"
	ItemStatusDraft   = "draft"
	ItemStatusDeleted = "deleted"
)

// Item 本地商品主档
// 同一件商品在三套 ID 体系下各有身份：本地主键、Shopify GID、Paperclip 市场 ID
type Item struct {
	BaseModel
	StoreID int64  `gorm:"index;not null"` // 店铺 ID (多店铺隔离核心)
	Store   *Store `gorm:"foreignKey:StoreID"`

	// --- 商品基本信息 ---
	Title       string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	Brand       string `gorm:"size:100"`
	LogoURL     string `gorm:"size:512"` // 品牌 Logo，尽力获取，可为空

	// --- 价格与数量 ---
	Price    float64 `gorm:"type:decimal(10,2);default:0"`
	Quantity int     `gorm:"default:0"`

	// --- 属性 ---
	Size      string `gorm:"size:50"`
	Color     string `gorm:"size:50"`
	Condition string `gorm:"size:20;default:'New'"` // New / Refurbished / Used
	ColorID   *int64 `gorm:"index"`
	AgeID     *int64 `gorm:"index"`

	// --- 分类 ---
	CategoryID *int64    `gorm:"index"`
	Category   *Category `gorm:"foreignKey:CategoryID"`

	// --- 标签 (Postgres Array) ---
	Tags pq.StringArray `gorm:"type:text[]"`

	// --- Shopify 身份字段 ---
	// 注意：Shopify 在 create/update/webhook 重放之间不保证编码一致，
	// 查询必须同时匹配数字 ID 和 GID 两种写法 (见 IdentityService)
	ShopifyProductID       string `gorm:"size:255;index"`
	ShopifyVariantID       string `gorm:"size:255"`
	ShopifyInventoryItemID string `gorm:"size:255;index:idx_inventory_key"`
	ShopifyLocationID      string `gorm:"size:255;index:idx_inventory_key"`

	// --- Paperclip 身份字段 ---
	// 为空表示尚未推送，下次 sweep 会重试
	PaperclipMarketplaceID *string    `gorm:"size:100;index"`
	PaperclipListedAt      *time.Time `gorm:"comment:推送成功时间"`

	// --- 状态标记 ---
	Status     string `gorm:"size:20;index;default:'active'"`
	Duplicated bool   `gorm:"default:false"` // 身份冲突自愈时标记

	// --- 关联关系 ---
	Images []ItemImage `gorm:"foreignKey:ItemID"`
}

func (Item) TableName() string {
	return "items"
}

// ItemImage 商品图片
// display_order 必须是 0..n-1 的稠密排列，与外部媒体列表顺序一致
type ItemImage struct {
	BaseModel

	ItemID int64 `gorm:"index;not null"`
	Item   *Item `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	ImageURL     string `gorm:"size:512"`
	DisplayOrder int    `gorm:"default:0"`

	// Shopify 媒体 GID。图片 diff 按它对账而不是按 URL，
	// 因为 CDN 重签名会改 URL 但外部身份不变
	ShopifyMediaID string `gorm:"size:255;index"`
}

func (ItemImage) TableName() string {
	return "item_images"
}
