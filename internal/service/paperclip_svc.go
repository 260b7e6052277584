package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/pkg/paperclip"
	"retail_sync_v1_202608/pkg/utils"
)

// ==================== 配置 ====================

// PaperclipConfig 市场接入配置
type PaperclipConfig struct {
	BaseURL string
}

// ==================== 服务 ====================

// PaperclipService Paperclip 市场 API 客户端
// 拉取用 bearer GET，推送用 multipart：图片不传 URL，
// 先下载成二进制再作为文件块重新上传
type PaperclipService struct {
	cfg    *PaperclipConfig
	client *resty.Client
}

// NewPaperclipService 创建市场服务
func NewPaperclipService(cfg *PaperclipConfig) *PaperclipService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paperclip.co"
	}
	return &PaperclipService{
		cfg:    cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// PullItems 批量拉取市场侧商品
func (s *PaperclipService) PullItems(ctx context.Context, token string) ([]paperclip.ItemDTO, error) {
	if token == "" {
		return nil, fmt.Errorf("缺少 Paperclip 凭证")
	}

	var result paperclip.PullResp
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&result).
		Get(s.cfg.BaseURL + "/v4/items/pull")
	if err != nil {
		return nil, fmt.Errorf("拉取市场商品失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("拉取市场商品返回 %d: %s", resp.StatusCode(), resp.String())
	}

	return result.Data, nil
}

// PushItem 把本地商品推送到市场，成功返回市场分配的 ID
// 图片逐张下载后作为 media[i] 文件块上传；单张下载失败跳过该图继续，
// 全部失败也照推 (无图商品合法)
func (s *PaperclipService) PushItem(ctx context.Context, token string, item *model.Item, marketplaceCategoryID string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("缺少 Paperclip 凭证")
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetFormData(map[string]string{
			"name":          item.Title,
			"description":   item.Description,
			"price":         strconv.FormatFloat(item.Price, 'f', 2, 64),
			"conditionType": strconv.Itoa(paperclip.ToConditionType(item.Condition)),
			"packageSize":   "Medium",
			"retailId":      strconv.FormatInt(item.ID, 10),
		})

	if item.Brand != "" {
		req.SetFormData(map[string]string{"brand": item.Brand})
	}
	if item.Size != "" {
		req.SetFormData(map[string]string{"size": item.Size})
	}
	if item.ColorID != nil {
		req.SetFormData(map[string]string{"colorId": strconv.FormatInt(*item.ColorID, 10)})
	}
	if item.AgeID != nil {
		req.SetFormData(map[string]string{"age": strconv.FormatInt(*item.AgeID, 10)})
	}
	// 分类映射不到市场侧时整个字段省略
	if marketplaceCategoryID != "" {
		req.SetFormData(map[string]string{"categoryId": marketplaceCategoryID})
	}
	for i, tag := range item.Tags {
		req.SetFormData(map[string]string{fmt.Sprintf("tags[%d]", i): tag})
	}

	mediaCount := 0
	for _, img := range item.Images {
		data, err := utils.DownloadImage(img.ImageURL)
		if err != nil {
			log.Printf("[Paperclip] 商品 %d 图片下载失败 %s: %v", item.ID, img.ImageURL, err)
			continue
		}
		req.SetFileReader(fmt.Sprintf("media[%d]", mediaCount),
			fmt.Sprintf("media_%d.jpg", mediaCount), bytes.NewReader(data))
		mediaCount++
	}

	var result paperclip.PushResp
	resp, err := req.SetResult(&result).Post(s.cfg.BaseURL + "/v4/items")
	if err != nil {
		return "", fmt.Errorf("推送商品失败: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", fmt.Errorf("推送商品返回 %d: %s", resp.StatusCode(), resp.String())
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("推送响应缺少商品 ID: %s", resp.String())
	}

	return result.Data.ID, nil
}
