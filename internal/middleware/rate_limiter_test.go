package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 限流器 ====================

func TestSyncRateLimiter_Check(t *testing.T) {
	limiter := &SyncRateLimiter{}

	result := limiter.Check("store:1:sweep", time.Minute)
	if !result.Allowed {
		t.Fatalf("首次触发应放行")
	}

	// 冷却内再触发
	result = limiter.Check("store:1:sweep", time.Minute)
	if result.Allowed {
		t.Errorf("冷却期内不应放行")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("retry_after = %v 不合理", result.RetryAfter)
	}

	// 不同店铺互不影响
	if got := limiter.Check("store:2:sweep", time.Minute); !got.Allowed {
		t.Errorf("不同 key 应独立冷却")
	}

	// 重置后立即放行
	limiter.Reset("store:1:sweep")
	if got := limiter.Check("store:1:sweep", time.Minute); !got.Allowed {
		t.Errorf("重置后应放行")
	}
}

// ==================== 中间件 ====================

func TestSweepRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/stores/:id/sweep", SweepRateLimit(time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 200})
	})

	do := func(path string) int {
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// 测试间全局限流器共享状态，选一个不会撞车的店铺 ID
	const storeID = "777"
	GetLimiter().Reset(StoreSweepKey(777))

	if code := do("/stores/" + storeID + "/sweep"); code != http.StatusOK {
		t.Fatalf("首次触发 = %d, want 200", code)
	}
	if code := do("/stores/" + storeID + "/sweep"); code != http.StatusTooManyRequests {
		t.Errorf("冷却期内 = %d, want 429", code)
	}

	// 非法店铺 ID
	if code := do("/stores/abc/sweep"); code != http.StatusBadRequest {
		t.Errorf("非法 ID = %d, want 400", code)
	}
}
