package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== Shopify 接入 ====================

const shopifyAPIVersion = "2024-01"

// variantInventoryQuery 取代表变体的权威价格/库存
const variantInventoryQuery = `query productVariants($id: ID!) {
  product(id: $id) {
    id
    variants(first: 1) {
      edges {
        node {
          id
          price
          inventoryQuantity
          inventoryItem { id }
          product { id }
        }
      }
    }
  }
}`

// VariantInventory GraphQL 补全结果
type VariantInventory struct {
	VariantID       string
	Price           float64
	Quantity        int
	InventoryItemID string
}

// ShopifyService 店面侧 GraphQL 查询
// webhook 载荷的价格/库存可能缺失或滞后，写库前尽力向权威接口补一次，
// 失败不致命，调用方继续用载荷值
type ShopifyService struct {
	client *resty.Client
}

// NewShopifyService 创建店面服务
func NewShopifyService() *ShopifyService {
	return &ShopifyService{
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// FetchVariantInventory 按商品 GID 查询代表变体的价格与库存
func (s *ShopifyService) FetchVariantInventory(ctx context.Context, store *model.Store, productGID string) (*VariantInventory, error) {
	if store.ShopifyShopDomain == "" || store.ShopifyAccessToken == "" {
		return nil, fmt.Errorf("店铺 %d 缺少 Shopify 凭证", store.ID)
	}

	var result shopify.InventoryQueryResp
	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", store.ShopifyShopDomain, shopifyAPIVersion)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Shopify-Access-Token", store.ShopifyAccessToken).
		SetBody(shopify.GraphQLReq{
			Query:     variantInventoryQuery,
			Variables: map[string]interface{}{"id": productGID},
		}).
		SetResult(&result).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("GraphQL 请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("GraphQL 返回 %d: %s", resp.StatusCode(), resp.String())
	}

	edges := result.Data.Product.Variants.Edges
	if len(edges) == 0 {
		return nil, fmt.Errorf("商品 %s 无变体数据", productGID)
	}

	node := edges[0].Node
	price, _ := strconv.ParseFloat(node.Price, 64)

	return &VariantInventory{
		VariantID:       node.ID,
		Price:           price,
		Quantity:        node.InventoryQuantity,
		InventoryItemID: node.InventoryItem.ID,
	}, nil
}
