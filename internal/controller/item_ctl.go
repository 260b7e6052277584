package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retail_sync_v1_202608/internal/repository"
)

// ==================== 商品只读 API ====================

// ItemController 后台商品查询 (只读)
type ItemController struct {
	itemRepo repository.ItemRepository
}

// NewItemController 创建商品控制器
func NewItemController(itemRepo repository.ItemRepository) *ItemController {
	return &ItemController{itemRepo: itemRepo}
}

// List GET /api/v1/items
func (ctl *ItemController) List(c *gin.Context) {
	storeID, _ := strconv.ParseInt(c.Query("store_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := ctl.itemRepo.List(c.Request.Context(), repository.ItemFilter{
		StoreID:  storeID,
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data": gin.H{
			"list":  items,
			"total": total,
		},
	})
}

// Get GET /api/v1/items/:id
func (ctl *ItemController) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的商品 ID",
		})
		return
	}

	item, err := ctl.itemRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "商品不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "ok",
		"data":    item,
	})
}
