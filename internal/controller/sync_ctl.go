package controller

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/internal/service"
)

// ==================== 手动同步 ====================

// SyncController 手动触发 sweep
type SyncController struct {
	storeRepo repository.StoreRepository
	syncSvc   *service.SyncService
}

// NewSyncController 创建同步控制器
func NewSyncController(storeRepo repository.StoreRepository, syncSvc *service.SyncService) *SyncController {
	return &SyncController{storeRepo: storeRepo, syncSvc: syncSvc}
}

// TriggerSweep POST /api/v1/stores/:id/sweep
// 异步执行，前端不等结果；路由上挂了冷却限流
func (ctl *SyncController) TriggerSweep(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的店铺 ID",
		})
		return
	}

	store, err := ctl.storeRepo.GetByID(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "店铺不存在",
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := ctl.syncSvc.SweepStore(ctx, store); err != nil {
			log.Printf("[Sync] 店铺 %d 手动 sweep 失败: %v", store.ID, err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "同步已触发",
	})
}
