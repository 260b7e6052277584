package service

import (
	"context"
	"fmt"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
)

// ==================== 图片集对账 ====================

// ForeignMedia 外部媒体条目，切片顺序即展示顺序
type ForeignMedia struct {
	MediaID string
	URL     string
}

// ImageService 图片集对账
// diff 以外部媒体 ID 为键而不是 URL：CDN 重签名会改 URL，
// 外部身份不变。display_order 总是改写成来件列表的下标
type ImageService struct {
	itemRepo repository.ItemRepository
}

// NewImageService 创建图片服务
func NewImageService(itemRepo repository.ItemRepository) *ImageService {
	return &ImageService{itemRepo: itemRepo}
}

// Reconcile 按外部媒体 ID 做三路 diff：
// 删 — 本地有外部 ID 但来件列表里没有的；
// 改 — ID 命中的刷新 URL 和顺序；
// 增 — 来件有而本地没有的插入新行
func (s *ImageService) Reconcile(ctx context.Context, itemID int64, incoming []ForeignMedia) error {
	existing, err := s.itemRepo.GetImagesByItemID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("读取本地图片失败: %w", err)
	}

	byMediaID := make(map[string]*model.ItemImage, len(existing))
	for i := range existing {
		if existing[i].ShopifyMediaID != "" {
			byMediaID[existing[i].ShopifyMediaID] = &existing[i]
		}
	}

	incomingIDs := make(map[string]bool, len(incoming))
	for _, m := range incoming {
		incomingIDs[m.MediaID] = true
	}

	// 删：有外部 ID 却不在来件列表里的本地图片
	for _, img := range existing {
		if img.ShopifyMediaID != "" && !incomingIDs[img.ShopifyMediaID] {
			if err := s.itemRepo.DeleteImage(ctx, img.ID); err != nil {
				return fmt.Errorf("删除图片 id=%d 失败: %w", img.ID, err)
			}
		}
	}

	// 改 + 增：顺序按来件下标改写
	for idx, m := range incoming {
		if local, ok := byMediaID[m.MediaID]; ok {
			local.ImageURL = m.URL
			local.DisplayOrder = idx
			if err := s.itemRepo.UpdateImage(ctx, local); err != nil {
				return fmt.Errorf("更新图片 id=%d 失败: %w", local.ID, err)
			}
			continue
		}
		newImg := &model.ItemImage{
			ItemID:         itemID,
			ImageURL:       m.URL,
			DisplayOrder:   idx,
			ShopifyMediaID: m.MediaID,
		}
		if err := s.itemRepo.CreateImage(ctx, newImg); err != nil {
			return fmt.Errorf("插入图片失败: %w", err)
		}
	}

	return nil
}

// ReplaceSet 整组替换本地图片 (市场批量拉取路径)
// 拉取以市场侧为准，不做合并
func (s *ImageService) ReplaceSet(ctx context.Context, itemID int64, incoming []ForeignMedia) error {
	if err := s.itemRepo.DeleteImagesByItemID(ctx, itemID); err != nil {
		return fmt.Errorf("清空本地图片失败: %w", err)
	}
	for idx, m := range incoming {
		img := &model.ItemImage{
			ItemID:         itemID,
			ImageURL:       m.URL,
			DisplayOrder:   idx,
			ShopifyMediaID: m.MediaID,
		}
		if err := s.itemRepo.CreateImage(ctx, img); err != nil {
			return fmt.Errorf("插入图片失败: %w", err)
		}
	}
	return nil
}
