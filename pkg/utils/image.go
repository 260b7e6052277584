package utils

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

var imageClient = &http.Client{Timeout: 30 * time.Second}

// DownloadImage 下载网络图片并返回字节切片
// 推送商品到市场前把图片 URL 换成二进制，由调用方决定失败是否致命
func DownloadImage(url string) ([]byte, error) {
	resp, err := imageClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %v", err)
	}

	return data, nil
}
