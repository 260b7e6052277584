package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== 身份解析 ====================

// IdentityService 跨 ID 编码的商品身份解析
// Shopify 在 create/update/重放之间对同一商品会换用数字 ID 或 GID，
// 只按单一编码查找会误判 "不存在" 造成重复建档，
// 所以所有身份查询都同时带两种写法
type IdentityService struct {
	itemRepo repository.ItemRepository
}

// NewIdentityService 创建身份解析服务
func NewIdentityService(itemRepo repository.ItemRepository) *IdentityService {
	return &IdentityService{itemRepo: itemRepo}
}

// Resolve 按外部商品 ID 查找本地权威记录
// 多条命中属于数据完整性异常：保留最早一条，其余软删并打 duplicated 标记。
// 这个自愈在每次 create/update 解析时都会跑，用来修复历史脏数据。
// 无命中返回 (nil, nil)，由调用方走建档路径
func (s *IdentityService) Resolve(ctx context.Context, storeID int64, rawProductID string) (*model.Item, error) {
	numeric, gid := shopify.ProductEncodings(rawProductID)

	items, err := s.itemRepo.FindByShopifyProductID(ctx, storeID, numeric, gid)
	if err != nil {
		return nil, fmt.Errorf("身份查询失败: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	canonical := items[0]

	if len(items) > 1 {
		log.Printf("[Identity] 商品 %s 命中 %d 条本地记录，保留最早 id=%d，其余软删",
			rawProductID, len(items), canonical.ID)
		for _, extra := range items[1:] {
			err := s.itemRepo.UpdateFields(ctx, extra.ID, map[string]interface{}{
				"status":     model.ItemStatusDeleted,
				"duplicated": true,
				"deleted_at": time.Now(),
			})
			if err != nil {
				return nil, fmt.Errorf("软删重复记录 id=%d 失败: %w", extra.ID, err)
			}
		}
	}

	return &canonical, nil
}

// SoftDelete 按外部商品 ID 软删本地记录 (delete webhook 路径)
// 删除天然幂等，重复投递不加锁；无命中不算错误
func (s *IdentityService) SoftDelete(ctx context.Context, storeID int64, rawProductID string) (int, error) {
	numeric, gid := shopify.ProductEncodings(rawProductID)

	items, err := s.itemRepo.FindByShopifyProductID(ctx, storeID, numeric, gid)
	if err != nil {
		return 0, fmt.Errorf("身份查询失败: %w", err)
	}

	for _, item := range items {
		err := s.itemRepo.UpdateFields(ctx, item.ID, map[string]interface{}{
			"status":     model.ItemStatusDeleted,
			"deleted_at": time.Now(),
		})
		if err != nil {
			return 0, fmt.Errorf("软删 id=%d 失败: %w", item.ID, err)
		}
	}
	return len(items), nil
}
