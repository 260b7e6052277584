package model

// Store 状态常量
const (
	StoreStatusActive   = "active"
	StoreStatusDisabled = "disabled"
)

// Store 店铺表
// 每个店铺持有 Shopify 与 Paperclip 两侧凭证，凭证按操作即时取用，
// 缺失凭证时同步操作直接中止
type Store struct {
	BaseModel

	Name string `gorm:"size:100;not null" json:"name"`

	// --- Shopify 凭证 ---
	ShopifyShopDomain  string `gorm:"size:255;uniqueIndex" json:"shopify_shop_domain"`
	ShopifyAccessToken string `gorm:"size:512" json:"-"`
	// Webhook 签名密钥 (HMAC-SHA256)
	ShopifyWebhookSecret string `gorm:"size:255" json:"-"`

	// --- Paperclip 凭证 ---
	PaperclipToken string `gorm:"size:512" json:"-"`

	Status string `gorm:"size:20;default:'active'" json:"status"`
}

func (Store) TableName() string {
	return "stores"
}
