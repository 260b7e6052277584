package shopify

// ==========================================
// DTO: 用于接收 Shopify Webhook 的原始 JSON 数据
// ==========================================

// OptionDTO 商品选项定义 (Size/Color/Condition 等，position 1..3)
type OptionDTO struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Position int      `json:"position"`
	Values   []string `json:"values"`
}

// VariantDTO 变体结构
// price 是字符串，option1..3 对应 options 里的 position
type VariantDTO struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	Sku               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	Option1           string `json:"option1"`
	Option2           string `json:"option2"`
	Option3           string `json:"option3"`
}

// ImageDTO 商品图片
type ImageDTO struct {
	ID       int64  `json:"id"`
	Position int    `json:"position"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
}

// ProductDTO 商品 webhook 载荷 (products/create, products/update, products/delete)
type ProductDTO struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Status      string       `json:"status"`
	Tags        string       `json:"tags"` // 逗号分隔
	Variants    []VariantDTO `json:"variants"`
	Options     []OptionDTO  `json:"options"`
	Images      []ImageDTO   `json:"images"`
}

// InventoryLevelDTO inventory_levels/update 载荷
type InventoryLevelDTO struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       int   `json:"available"`
}

// ==========================================
// GraphQL 库存补全查询的响应结构
// ==========================================

// InventoryQueryResp variant 价格/库存权威数据
type InventoryQueryResp struct {
	Data struct {
		Product struct {
			ID       string `json:"id"`
			Variants struct {
				Edges []struct {
					Node struct {
						ID                string `json:"id"`
						Price             string `json:"price"`
						InventoryQuantity int    `json:"inventoryQuantity"`
						InventoryItem     struct {
							ID string `json:"id"`
						} `json:"inventoryItem"`
						Product struct {
							ID string `json:"id"`
						} `json:"product"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"variants"`
		} `json:"product"`
	} `json:"data"`
}

// GraphQLReq GraphQL 请求体
type GraphQLReq struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}
