package paperclip

import "encoding/json"

// ==========================================
// DTO: Paperclip 市场 API 的原始 JSON 数据
// ==========================================

// MediaDTO 商品媒体
type MediaDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ItemDTO 市场侧商品
type ItemDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Quantity      int        `json:"quantity"`
	ConditionType int        `json:"conditionType"`
	Size          string     `json:"size"`
	ColorName     string     `json:"colorName"`
	ColorID       string     `json:"colorId"`
	Age           string     `json:"age"`
	Brand         string     `json:"brand"`
	CategoryID    string     `json:"categoryId"`
	Tags          []string   `json:"tags"`
	Media         []MediaDTO `json:"media"`
}

// PullResp GET /v4/items/pull 响应
type PullResp struct {
	Data []ItemDTO `json:"data"`
}

// PushResp POST /v4/items 响应，data.id 回填到本地商品
type PushResp struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Message string `json:"message"`
}

// WebhookItemDTO item_updated webhook 里的商品
// 字段名与拉取 API 不同 (snake_case)，media 是裸 URL 数组
type WebhookItemDTO struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Price         json.Number `json:"price"`
	Quantity      int         `json:"quantity"`
	ConditionType int         `json:"condition_type"`
	Size          string      `json:"size"`
	Brand         string      `json:"brand"`
	Color         string      `json:"color"`
	Age           string      `json:"age"`
	LogoURL       string      `json:"logo_url"`
	CategoryID    string      `json:"categoryId"`
	Tags          []string    `json:"tags"`
	Media         []string    `json:"media"`
}

// WebhookPayload item_updated webhook 载荷
// multipart 形态下本 JSON 位于 payload 字段，media 文件块另行上传合并
type WebhookPayload struct {
	Event string         `json:"event"`
	Item  WebhookItemDTO `json:"item"`
}
