package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 手动触发 sweep 的冷却限流
// 防止前端反复点同步把市场 API 打挂
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &SyncRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时同时更新最后执行时间
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// StoreSweepKey 生成店铺级 sweep 限流 Key
func StoreSweepKey(storeID int64) string {
	return fmt.Sprintf("store:%d:sweep", storeID)
}

// ==================== Gin 中间件 ====================

// DefaultSweepInterval 手动 sweep 默认冷却
const DefaultSweepInterval = 5 * time.Minute

// SweepRateLimit 手动 sweep 触发的限流中间件，按店铺维度冷却
func SweepRateLimit(interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultSweepInterval
	}

	return func(c *gin.Context) {
		storeIDStr := c.Param("id")
		if storeIDStr == "" {
			storeIDStr = c.Query("store_id")
		}

		storeID, err := strconv.ParseInt(storeIDStr, 10, 64)
		if err != nil || storeID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的店铺 ID",
			})
			c.Abort()
			return
		}

		result := GetLimiter().Check(StoreSweepKey(storeID), interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("同步冷却中，请 %d 秒后重试", int(result.RetryAfter.Seconds())),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()),
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
