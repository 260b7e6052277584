package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/pkg/paperclip"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== 对账引擎 ====================

// 去重窗口：同一 webhook_id 在窗口内的重复投递按 no-op 处理，
// 窗口外的残留锁视为陈旧，删掉重新抢
const dedupWindow = 10 * time.Second

// SyncService 对账引擎
// 入站 webhook 和出站 sweep 共用同一条解析管线：
// 锁 → 身份 → 属性/分类 → 落库 → 图片对账
type SyncService struct {
	itemRepo     repository.ItemRepository
	storeRepo    repository.StoreRepository
	categoryRepo repository.CategoryRepository
	lookupRepo   repository.LookupRepository
	lockRepo     repository.WebhookLockRepository

	identity  *IdentityService
	attribute *AttributeService
	category  *CategoryService
	image     *ImageService
	shopify   *ShopifyService
	paperclip *PaperclipService
	logo      *LogoService
}

// NewSyncService 创建对账引擎
func NewSyncService(
	itemRepo repository.ItemRepository,
	storeRepo repository.StoreRepository,
	categoryRepo repository.CategoryRepository,
	lookupRepo repository.LookupRepository,
	lockRepo repository.WebhookLockRepository,
	identity *IdentityService,
	attribute *AttributeService,
	category *CategoryService,
	image *ImageService,
	shopifySvc *ShopifyService,
	paperclipSvc *PaperclipService,
	logo *LogoService,
) *SyncService {
	return &SyncService{
		itemRepo:     itemRepo,
		storeRepo:    storeRepo,
		categoryRepo: categoryRepo,
		lookupRepo:   lookupRepo,
		lockRepo:     lockRepo,
		identity:     identity,
		attribute:    attribute,
		category:     category,
		image:        image,
		shopify:      shopifySvc,
		paperclip:    paperclipSvc,
		logo:         logo,
	}
}

// ==================== 去重锁生命周期 ====================

// AcquireWebhookLock 抢 webhook 去重锁
// 返回 false 表示窗口内重复投递，调用方回 200 no-op。
// 撞到窗口外的陈旧锁时删掉重抢一次
func (s *SyncService) AcquireWebhookLock(ctx context.Context, webhookID, topic, shop, productID string, payload []byte) (bool, error) {
	lock := &model.WebhookLock{
		WebhookID: webhookID,
		Topic:     topic,
		Shop:      shop,
		ProductID: productID,
		Status:    model.WebhookLockProcessing,
		Payload:   datatypes.JSON(payload),
	}

	acquired, err := s.lockRepo.TryAcquire(ctx, lock)
	if err != nil {
		return false, fmt.Errorf("抢锁失败: %w", err)
	}
	if acquired {
		return true, nil
	}

	existing, err := s.lockRepo.GetByWebhookID(ctx, webhookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 冲突行刚被别人清掉，再抢一次
			lock.ID = 0
			return s.lockRepo.TryAcquire(ctx, lock)
		}
		return false, fmt.Errorf("读取已有锁失败: %w", err)
	}

	if time.Since(existing.CreatedAt) < dedupWindow {
		return false, nil
	}

	// 陈旧锁：删除后重抢。带时间条件删，避免误删并发新锁
	if _, err := s.lockRepo.DeleteOlderThan(ctx, webhookID, time.Now().Add(-dedupWindow)); err != nil {
		return false, fmt.Errorf("清理陈旧锁失败: %w", err)
	}
	lock.ID = 0
	return s.lockRepo.TryAcquire(ctx, lock)
}

// ReleaseWebhookLock 处理失败后删锁，允许发送方重试
func (s *SyncService) ReleaseWebhookLock(ctx context.Context, webhookID string) {
	if err := s.lockRepo.Release(ctx, webhookID); err != nil {
		log.Printf("[Sync] 释放锁 %s 失败: %v", webhookID, err)
	}
}

// CompleteWebhookLock 处理成功后锁置 completed，窗口内继续拦截重放
func (s *SyncService) CompleteWebhookLock(ctx context.Context, webhookID string) {
	if err := s.lockRepo.MarkCompleted(ctx, webhookID); err != nil {
		log.Printf("[Sync] 完成锁 %s 失败: %v", webhookID, err)
	}
}

// ==================== Shopify 事件处理 ====================

// HandleProductUpsert products/create 与 products/update 共用：
// 解析器只做 resolve-or-create，从不严格区分两种事件
func (s *SyncService) HandleProductUpsert(ctx context.Context, store *model.Store, dto *shopify.ProductDTO) error {
	rawID := strconv.FormatInt(dto.ID, 10)
	productGID := shopify.ProductGID(dto.ID)

	existing, err := s.identity.Resolve(ctx, store.ID, rawID)
	if err != nil {
		return err
	}

	// 载荷自带的价格/库存先兜底
	var price float64
	var quantity int
	var variantID, inventoryItemID string
	if len(dto.Variants) > 0 {
		v := dto.Variants[0]
		price, _ = strconv.ParseFloat(v.Price, 64)
		quantity = v.InventoryQuantity
		variantID = shopify.VariantGID(v.ID)
		if v.InventoryItemID > 0 {
			inventoryItemID = shopify.InventoryItemGID(v.InventoryItemID)
		}
	}

	// 权威接口尽力补全，网络失败继续用载荷值
	if inv, err := s.shopify.FetchVariantInventory(ctx, store, productGID); err != nil {
		log.Printf("[Sync] 商品 %s 库存补全失败 (继续用载荷值): %v", rawID, err)
	} else {
		price = inv.Price
		quantity = inv.Quantity
		if inv.VariantID != "" {
			variantID = inv.VariantID
		}
		if inv.InventoryItemID != "" {
			inventoryItemID = inv.InventoryItemID
		}
	}

	// Logo 纯尽力而为
	logoURL := s.logo.Lookup(ctx, dto.Vendor)

	attrs := s.attribute.Extract(dto)
	tags := s.attribute.NormalizeTags(dto.Tags)

	var colorID *int64
	if attrs.Color != "" {
		if color, err := s.lookupRepo.GetOrCreateColor(ctx, attrs.Color); err != nil {
			log.Printf("[Sync] 颜色字典写入失败 %s: %v", attrs.Color, err)
		} else {
			colorID = &color.ID
		}
	}

	categoryID, err := s.category.MapCategory(ctx, store.ID, ProductSummary{
		Title:           dto.Title,
		Description:     dto.BodyHTML,
		ForeignCategory: dto.ProductType,
		Brand:           dto.Vendor,
		Tags:            tags,
	})
	if err != nil {
		// 分类树不可用时商品落库仍继续，分类留空
		log.Printf("[Sync] 商品 %s 分类映射失败: %v", rawID, err)
		categoryID = nil
	}

	if existing == nil {
		existing = &model.Item{
			StoreID:          store.ID,
			ShopifyProductID: productGID,
		}
	}

	existing.Title = dto.Title
	existing.Description = dto.BodyHTML
	existing.Brand = dto.Vendor
	existing.LogoURL = logoURL
	existing.Price = price
	existing.Quantity = quantity
	existing.Size = attrs.Size
	existing.Color = attrs.Color
	existing.Condition = attrs.Condition
	existing.ColorID = colorID
	existing.CategoryID = categoryID
	existing.Tags = pq.StringArray(tags)
	existing.ShopifyVariantID = variantID
	if inventoryItemID != "" {
		existing.ShopifyInventoryItemID = inventoryItemID
	}
	existing.Status = model.ItemStatusActive

	if existing.ID == 0 {
		if err := s.itemRepo.Create(ctx, existing); err != nil {
			return fmt.Errorf("商品建档失败: %w", err)
		}
	} else {
		if err := s.itemRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("商品更新失败: %w", err)
		}
	}

	incoming := make([]ForeignMedia, 0, len(dto.Images))
	for _, img := range dto.Images {
		incoming = append(incoming, ForeignMedia{
			MediaID: strconv.FormatInt(img.ID, 10),
			URL:     img.Src,
		})
	}
	if err := s.image.Reconcile(ctx, existing.ID, incoming); err != nil {
		return fmt.Errorf("图片对账失败: %w", err)
	}

	return nil
}

// HandleProductDelete products/delete：按两种编码软删，天然幂等，不走锁
func (s *SyncService) HandleProductDelete(ctx context.Context, store *model.Store, rawProductID string) error {
	n, err := s.identity.SoftDelete(ctx, store.ID, rawProductID)
	if err != nil {
		return err
	}
	log.Printf("[Sync] 商品 %s 软删 %d 条", rawProductID, n)
	return nil
}

// HandleInventoryUpdate inventory_levels/update：按复合键只改数量
// 复合键没命中是硬错误，说明前置的 create/update 丢了
func (s *SyncService) HandleInventoryUpdate(ctx context.Context, dto *shopify.InventoryLevelDTO) error {
	inventoryItemGID := shopify.InventoryItemGID(dto.InventoryItemID)
	locationGID := shopify.LocationGID(dto.LocationID)

	item, err := s.itemRepo.FindByInventoryKey(ctx, inventoryItemGID, locationGID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("库存键 (%s, %s) 无匹配商品: %w", inventoryItemGID, locationGID, ErrItemNotFound)
		}
		return fmt.Errorf("库存键查询失败: %w", err)
	}

	return s.itemRepo.UpdateFields(ctx, item.ID, map[string]interface{}{
		"quantity": dto.Available,
	})
}

// ==================== Paperclip 事件处理 ====================

// HandlePaperclipItemUpdated item_updated webhook：
// 按市场 ID 定位本地商品并回写字段。mediaURLs 是载荷媒体列表与
// multipart 媒体块落盘 URL 的合并结果，webhook 侧媒体没有独立外部 ID，
// URL 本身就是身份
func (s *SyncService) HandlePaperclipItemUpdated(ctx context.Context, dto *paperclip.WebhookItemDTO, mediaURLs []string) error {
	item, err := s.itemRepo.FindByPaperclipID(ctx, 0, dto.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("市场 ID 查询失败: %w", err)
	}

	price, _ := dto.Price.Float64()

	fields := map[string]interface{}{
		"title":       dto.Name,
		"description": dto.Description,
		"price":       price,
		"quantity":    dto.Quantity,
		"condition":   paperclip.FromConditionType(dto.ConditionType),
		"size":        dto.Size,
		"brand":       dto.Brand,
		"status":      model.ItemStatusActive,
	}
	if len(dto.Tags) > 0 {
		fields["tags"] = pq.StringArray(dto.Tags)
	}
	if dto.LogoURL != "" {
		fields["logo_url"] = dto.LogoURL
	}

	if name := strings.TrimSpace(dto.Color); name != "" {
		if color, cerr := s.lookupRepo.GetOrCreateColor(ctx, name); cerr == nil {
			fields["color"] = name
			fields["color_id"] = color.ID
		}
	}
	if name := strings.TrimSpace(dto.Age); name != "" {
		if age, aerr := s.lookupRepo.GetOrCreateAge(ctx, name); aerr == nil {
			fields["age_id"] = age.ID
		}
	}

	// 市场分类 ID 反查本地分类，查不到保持原分类
	if dto.CategoryID != "" {
		if category, cerr := s.categoryRepo.GetByPaperclipID(ctx, dto.CategoryID); cerr == nil {
			fields["category_id"] = category.ID
		}
	}

	if err := s.itemRepo.UpdateFields(ctx, item.ID, fields); err != nil {
		return fmt.Errorf("商品回写失败: %w", err)
	}

	// 没给媒体就不动图片集
	if len(mediaURLs) > 0 {
		incoming := make([]ForeignMedia, 0, len(mediaURLs))
		for _, url := range mediaURLs {
			incoming = append(incoming, ForeignMedia{MediaID: url, URL: url})
		}
		if err := s.image.Reconcile(ctx, item.ID, incoming); err != nil {
			return fmt.Errorf("图片对账失败: %w", err)
		}
	}

	return nil
}

// ErrItemNotFound webhook 引用了不存在的本地商品
var ErrItemNotFound = errors.New("item not found")

// ==================== Sweep: 拉取 + 推送 ====================

// SweepStore 单店铺全量对账
// 单个商品失败只记日志并继续，坏数据不中断批次
func (s *SyncService) SweepStore(ctx context.Context, store *model.Store) error {
	if store.PaperclipToken == "" {
		return fmt.Errorf("店铺 %d 缺少 Paperclip 凭证", store.ID)
	}

	if err := s.pullFromMarketplace(ctx, store); err != nil {
		return err
	}
	return s.pushToMarketplace(ctx, store)
}

// pullFromMarketplace 市场 → 本地：resolve-or-create，图片整组替换
func (s *SyncService) pullFromMarketplace(ctx context.Context, store *model.Store) error {
	items, err := s.paperclip.PullItems(ctx, store.PaperclipToken)
	if err != nil {
		return err
	}

	log.Printf("[Sweep] 店铺 %d 拉取到 %d 件市场商品", store.ID, len(items))

	for i := range items {
		if err := s.pullOne(ctx, store, &items[i]); err != nil {
			log.Printf("[Sweep] 市场商品 %s 入库失败 (跳过): %v", items[i].ID, err)
		}
	}
	return nil
}

func (s *SyncService) pullOne(ctx context.Context, store *model.Store, dto *paperclip.ItemDTO) error {
	local, err := s.itemRepo.FindByPaperclipID(ctx, store.ID, dto.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var colorID *int64
	if dto.ColorName != "" {
		if color, cerr := s.lookupRepo.GetOrCreateColor(ctx, dto.ColorName); cerr == nil {
			colorID = &color.ID
		}
	}
	var ageID *int64
	if dto.Age != "" {
		if age, aerr := s.lookupRepo.GetOrCreateAge(ctx, dto.Age); aerr == nil {
			ageID = &age.ID
		}
	}
	var categoryID *int64
	if dto.CategoryID != "" {
		if category, cerr := s.categoryRepo.GetByPaperclipID(ctx, dto.CategoryID); cerr == nil {
			categoryID = &category.ID
		}
	}

	if local == nil {
		marketplaceID := dto.ID
		now := time.Now()
		local = &model.Item{
			StoreID:                store.ID,
			PaperclipMarketplaceID: &marketplaceID,
			PaperclipListedAt:      &now,
		}
	}

	local.Title = dto.Name
	local.Description = dto.Description
	local.Price = dto.Price
	if dto.Quantity > 0 {
		local.Quantity = dto.Quantity
	}
	local.Size = dto.Size
	local.Color = dto.ColorName
	local.Condition = paperclip.FromConditionType(dto.ConditionType)
	local.Brand = dto.Brand
	local.ColorID = colorID
	local.AgeID = ageID
	local.CategoryID = categoryID
	local.Tags = pq.StringArray(dto.Tags)
	local.Status = model.ItemStatusActive

	if local.ID == 0 {
		if err := s.itemRepo.Create(ctx, local); err != nil {
			return err
		}
	} else {
		if err := s.itemRepo.Update(ctx, local); err != nil {
			return err
		}
	}

	// 拉取以市场侧为准：整组替换而不是合并
	incoming := make([]ForeignMedia, 0, len(dto.Media))
	for _, m := range dto.Media {
		incoming = append(incoming, ForeignMedia{MediaID: m.ID, URL: m.URL})
	}
	return s.image.ReplaceSet(ctx, local.ID, incoming)
}

// pushToMarketplace 本地 → 市场：只选还没有市场 ID 的行，
// 推成功回填 ID。失败的行下一轮 sweep 自然重试，不记退避状态
func (s *SyncService) pushToMarketplace(ctx context.Context, store *model.Store) error {
	items, err := s.itemRepo.ListUnsynced(ctx, store.ID, 0)
	if err != nil {
		return fmt.Errorf("查询未推送商品失败: %w", err)
	}

	log.Printf("[Sweep] 店铺 %d 待推送 %d 件", store.ID, len(items))

	for i := range items {
		if err := s.pushOne(ctx, store, &items[i]); err != nil {
			log.Printf("[Sweep] 商品 %d 推送失败 (跳过): %v", items[i].ID, err)
		}
	}
	return nil
}

func (s *SyncService) pushOne(ctx context.Context, store *model.Store, item *model.Item) error {
	// 本地分类翻译成市场分类 ID，翻不出来就整个字段省略
	marketplaceCategoryID := ""
	if item.CategoryID != nil {
		if category, err := s.categoryRepo.GetByID(ctx, *item.CategoryID); err == nil &&
			category.PaperclipMarketplaceID != nil {
			marketplaceCategoryID = *category.PaperclipMarketplaceID
		}
	}

	assignedID, err := s.paperclip.PushItem(ctx, store.PaperclipToken, item, marketplaceCategoryID)
	if err != nil {
		return err
	}

	return s.itemRepo.UpdateFields(ctx, item.ID, map[string]interface{}{
		"paperclip_marketplace_id": assignedID,
		"paperclip_listed_at":      time.Now(),
	})
}
