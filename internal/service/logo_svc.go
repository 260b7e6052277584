package service

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"retail_sync_v1_202608/pkg/utils"
)

// ==================== 品牌 Logo 查询 ====================

// LogoConfig Logo 服务配置
type LogoConfig struct {
	BaseURL string
	ApiKey  string
}

// LogoService 品牌 Logo 查询
// 纯锦上添花：任何失败 (含非 200) 都吞掉返回空串，绝不阻塞商品落库。
// 同名品牌结果进内存缓存，避免每个 webhook 都打一次外部接口
type LogoService struct {
	cfg    *LogoConfig
	client *resty.Client
}

// NewLogoService 创建 Logo 服务
func NewLogoService(cfg *LogoConfig) *LogoService {
	return &LogoService{
		cfg:    cfg,
		client: resty.New().SetTimeout(10 * time.Second),
	}
}

const logoCacheTTL = 24 * time.Hour

// Lookup 按品牌名查 Logo URL，查不到返回空串
func (s *LogoService) Lookup(ctx context.Context, brand string) string {
	if brand == "" || s.cfg.BaseURL == "" {
		return ""
	}

	cacheKey := "logo:" + brand
	if cached, ok := utils.GetCache(cacheKey); ok {
		return cached
	}

	var result []struct {
		Name    string `json:"name"`
		LogoURL string `json:"logo_url"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.cfg.ApiKey).
		SetQueryParam("q", brand).
		SetResult(&result).
		Get(s.cfg.BaseURL + "/search")
	if err != nil {
		log.Printf("[Logo] 品牌 %s 查询失败: %v", brand, err)
		return ""
	}
	if resp.StatusCode() != 200 || len(result) == 0 {
		return ""
	}

	logoURL := result[0].LogoURL
	if logoURL != "" {
		utils.SetCache(cacheKey, logoURL, logoCacheTTL)
	}
	return logoURL
}
