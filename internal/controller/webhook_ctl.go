package controller

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/internal/service"
	"retail_sync_v1_202608/pkg/paperclip"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== Webhook 入口 ====================

// WebhookController 两个市场的 webhook 入口
// 边界职责：头校验、HMAC 验签、内容类型分流、去重锁生命周期、状态码映射。
// 任何副作用之前先把格式错误挡在 4xx
type WebhookController struct {
	storeRepo       repository.StoreRepository
	syncSvc         *service.SyncService
	storage         service.StorageProvider
	paperclipSecret string
}

// NewWebhookController 创建 webhook 控制器
func NewWebhookController(
	storeRepo repository.StoreRepository,
	syncSvc *service.SyncService,
	storage service.StorageProvider,
	paperclipSecret string,
) *WebhookController {
	return &WebhookController{
		storeRepo:       storeRepo,
		syncSvc:         syncSvc,
		storage:         storage,
		paperclipSecret: paperclipSecret,
	}
}

// verifyHMAC hex(HMAC-SHA256(secret, rawBody)) 与签名头常量时间比较
func verifyHMAC(rawBody []byte, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ==================== Shopify ====================

// HandleShopify POST /api/webhooks/shopify
func (ctl *WebhookController) HandleShopify(c *gin.Context) {
	topic := c.GetHeader("X-Shopify-Topic")
	shop := c.GetHeader("X-Shopify-Shop-Domain")
	signature := c.GetHeader("X-Shopify-Hmac-Sha256")
	isInternalCall := c.GetHeader("X-Internal-Call")

	if topic == "" || shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required headers"})
		return
	}

	if !strings.Contains(c.ContentType(), "application/json") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported Content-Type"})
		return
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	store, err := ctl.storeRepo.GetByShopDomain(c.Request.Context(), shop)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	// 内部补发调用带标记头跳过验签
	if isInternalCall == "" {
		if signature == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing HMAC header"})
			return
		}
		if !verifyHMAC(rawBody, store.ShopifyWebhookSecret, signature) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid HMAC"})
			return
		}
	}

	log.Printf("[Webhook] 收到 %s 来自 %s", topic, shop)

	switch topic {
	case "products/create", "products/update":
		ctl.handleProductUpsert(c, store, topic, shop, rawBody)
	case "products/delete":
		ctl.handleProductDelete(c, store, rawBody)
	case "inventory_levels/update":
		ctl.handleInventoryUpdate(c, rawBody)
	default:
		// 未订阅处理器的 topic 属于良性 no-op
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received but no handler for this topic"})
	}
}

// handleProductUpsert create/update 共用：先过去重锁再进对账引擎，
// 失败删锁放行重试，成功锁置 completed
func (ctl *WebhookController) handleProductUpsert(c *gin.Context, store *model.Store, topic, shop string, rawBody []byte) {
	var dto shopify.ProductDTO
	if err := json.Unmarshal(rawBody, &dto); err != nil || dto.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	webhookID := fmt.Sprintf("product-%d", dto.ID)
	ctx := c.Request.Context()

	acquired, err := ctl.syncSvc.AcquireWebhookLock(ctx, webhookID, topic, shop, fmt.Sprintf("%d", dto.ID), rawBody)
	if err != nil {
		log.Printf("[Webhook] 抢锁失败 %s: %v", webhookID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !acquired {
		log.Printf("[Webhook] 忽略重复投递: %s", webhookID)
		c.JSON(http.StatusOK, gin.H{"message": "Duplicate webhook ignored"})
		return
	}

	if err := ctl.syncSvc.HandleProductUpsert(ctx, store, &dto); err != nil {
		log.Printf("[Webhook] %s 处理失败: %v", topic, err)
		ctl.syncSvc.ReleaseWebhookLock(ctx, webhookID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctl.syncSvc.CompleteWebhookLock(ctx, webhookID)
	c.JSON(http.StatusOK, gin.H{"message": "Webhook processed"})
}

// handleProductDelete 软删天然幂等，不走锁
func (ctl *WebhookController) handleProductDelete(c *gin.Context, store *model.Store, rawBody []byte) {
	var dto struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rawBody, &dto); err != nil || dto.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	rawID := fmt.Sprintf("%d", dto.ID)
	if err := ctl.syncSvc.HandleProductDelete(c.Request.Context(), store, rawID); err != nil {
		log.Printf("[Webhook] 删除处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (ctl *WebhookController) handleInventoryUpdate(c *gin.Context, rawBody []byte) {
	var dto shopify.InventoryLevelDTO
	if err := json.Unmarshal(rawBody, &dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := ctl.syncSvc.HandleInventoryUpdate(c.Request.Context(), &dto); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found for inventory key"})
			return
		}
		log.Printf("[Webhook] 库存更新失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inventory updated"})
}

// ==================== Paperclip ====================

// HandlePaperclip POST /api/webhooks/paperclip
// JSON 与 multipart 两种形态；multipart 的 media 文件块先落盘换 URL，
// 再与载荷里的媒体列表合并交给对账引擎
func (ctl *WebhookController) HandlePaperclip(c *gin.Context) {
	contentType := strings.ToLower(c.ContentType())

	var payload paperclip.WebhookPayload
	var mediaURLs []string

	switch {
	case strings.Contains(contentType, "application/json"):
		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		if !ctl.verifyPaperclipSignature(c, rawBody) {
			return
		}
		if err := json.Unmarshal(rawBody, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

	case strings.Contains(contentType, "multipart/form-data"):
		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		if !ctl.verifyPaperclipSignature(c, rawBody) {
			return
		}
		// 验签消费了原始流，重建后再走 multipart 解析
		c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form-data"})
			return
		}

		payloadFields := form.Value["payload"]
		if len(payloadFields) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing payload field"})
			return
		}
		if err := json.Unmarshal([]byte(payloadFields[0]), &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
			return
		}

		// 媒体块逐个落盘，单个失败跳过
		for _, fh := range form.File["media"] {
			f, err := fh.Open()
			if err != nil {
				log.Printf("[Webhook] 媒体块打开失败 %s: %v", fh.Filename, err)
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				log.Printf("[Webhook] 媒体块读取失败 %s: %v", fh.Filename, err)
				continue
			}
			url, err := ctl.storage.Upload(c.Request.Context(), data, fh.Filename, "")
			if err != nil {
				log.Printf("[Webhook] 媒体块上传失败 %s: %v", fh.Filename, err)
				continue
			}
			mediaURLs = append(mediaURLs, url)
		}

	default:
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported Content-Type"})
		return
	}

	// 载荷自带的媒体 URL 合并进来
	mediaURLs = append(mediaURLs, payload.Item.Media...)

	if payload.Event != "item_updated" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported event"})
		return
	}

	err := ctl.syncSvc.HandlePaperclipItemUpdated(c.Request.Context(), &payload.Item, mediaURLs)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found or deleted"})
			return
		}
		log.Printf("[Webhook] item_updated 处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully", "itemId": payload.Item.ID})
}

// verifyPaperclipSignature 签名头存在时才校验 (与发送方的灰度行为一致)
func (ctl *WebhookController) verifyPaperclipSignature(c *gin.Context, rawBody []byte) bool {
	signature := c.GetHeader("X-Paperclip-Signature")
	if signature == "" || c.GetHeader("X-Internal-Call") != "" {
		return true
	}
	if !verifyHMAC(rawBody, ctl.paperclipSecret, signature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return false
	}
	return true
}
