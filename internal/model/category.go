package model

// Category 三级分类树
// parent_id 为空表示根节点，树按 display_order 升序遍历
type Category struct {
	BaseModel

	StoreID  int64  `gorm:"index;not null" json:"store_id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	ParentID *int64 `gorm:"index" json:"parent_id"`

	DisplayOrder int `gorm:"default:0" json:"display_order"`

	// Paperclip 侧分类 ID，marketplace webhook 按它反查本地分类
	PaperclipMarketplaceID *string `gorm:"size:100;index" json:"paperclip_marketplace_id"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}
