package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
)

// ==================== 配置 ====================

// CategoryConfig 分类服务配置
type CategoryConfig struct {
	ApiKey  string
	Model   string
	BaseURL string
}

// ==================== 服务 ====================

// CategoryService 分类映射
// 两段式：先让模型把外部分类文本翻译成 "一级 > 二级 > 三级" 路径，
// 再在本地分类树上逐层匹配。模型失败只会退化到树兜底，永不致命
type CategoryService struct {
	cfg          *CategoryConfig
	client       *resty.Client
	categoryRepo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(cfg *CategoryConfig, categoryRepo repository.CategoryRepository) *CategoryService {
	if cfg.Model == "" {
		cfg.Model = "gemini-3-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return &CategoryService{
		cfg:          cfg,
		client:       resty.New().SetTimeout(30 * time.Second),
		categoryRepo: categoryRepo,
	}
}

// ProductSummary 分类映射的输入摘要
type ProductSummary struct {
	Title           string
	Description     string
	ForeignCategory string
	Brand           string
	Tags            []string
}

// MapCategory 把外部商品摘要映射到本地分类 ID
// 分类树每次重新拉取，映射期间树可能被后台改动，不做跨请求缓存。
// 树拉取失败返回错误，调用方按可空分类容忍
func (s *CategoryService) MapCategory(ctx context.Context, storeID int64, summary ProductSummary) (*int64, error) {
	categories, err := s.categoryRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("拉取分类树失败: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	tree := buildCategoryTree(categories)

	path := s.classifyPath(ctx, summary, tree)

	return tree.resolve(path), nil
}

// ==================== Stage A: 模型分类 ====================

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// classifyPath 调用文本补全模型，期望返回单行 "一级 > 二级 > 三级"。
// 任何错误或格式异常都返回空串，由树匹配兜底
func (s *CategoryService) classifyPath(ctx context.Context, summary ProductSummary, tree *categoryTree) string {
	if s.cfg.ApiKey == "" {
		return ""
	}

	description := strings.TrimSpace(htmlTagRe.ReplaceAllString(summary.Description, " "))
	if len(description) > 500 {
		description = description[:500]
	}

	prompt := fmt.Sprintf(`You are a product categorization assistant.
Classify the product into exactly one category path from the tree below.

Product title: %s
Description: %s
Source category: %s
Brand: %s
Tags: %s

Category tree:
%s

Reply with a single line in the form "Level1 > Level2 > Level3" using only
names that appear in the tree. No explanation.`,
		summary.Title, description, summary.ForeignCategory, summary.Brand,
		strings.Join(summary.Tags, ", "), tree.serialize())

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.3,
			"maxOutputTokens": 60,
		},
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		s.cfg.BaseURL, s.cfg.Model, s.cfg.ApiKey)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&geminiResp).
		Post(url)
	if err != nil {
		log.Printf("[Category] 分类模型请求失败: %v", err)
		return ""
	}
	if resp.StatusCode() != 200 {
		log.Printf("[Category] 分类模型返回 %d: %s", resp.StatusCode(), resp.String())
		return ""
	}

	for _, candidate := range geminiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			line := strings.TrimSpace(part.Text)
			if line == "" {
				continue
			}
			// 只取第一行，模型偶尔会附带解释
			if idx := strings.IndexByte(line, '\n'); idx >= 0 {
				line = strings.TrimSpace(line[:idx])
			}
			return line
		}
	}
	return ""
}

// ==================== Stage B: 树匹配 ====================

// categoryTree 一次映射操作内的树快照
type categoryTree struct {
	roots      []model.Category
	childrenOf map[int64][]model.Category
}

func buildCategoryTree(categories []model.Category) *categoryTree {
	tree := &categoryTree{childrenOf: make(map[int64][]model.Category)}
	for _, c := range categories {
		if c.ParentID == nil {
			tree.roots = append(tree.roots, c)
		} else {
			tree.childrenOf[*c.ParentID] = append(tree.childrenOf[*c.ParentID], c)
		}
	}
	return tree
}

// serialize 把树铺成完整路径行，喂给分类模型
func (t *categoryTree) serialize() string {
	var sb strings.Builder
	for _, root := range t.roots {
		children := t.childrenOf[root.ID]
		if len(children) == 0 {
			fmt.Fprintf(&sb, "%s\n", root.Name)
			continue
		}
		for _, l2 := range children {
			grand := t.childrenOf[l2.ID]
			if len(grand) == 0 {
				fmt.Fprintf(&sb, "%s > %s\n", root.Name, l2.Name)
				continue
			}
			for _, l3 := range grand {
				fmt.Fprintf(&sb, "%s > %s > %s\n", root.Name, l2.Name, l3.Name)
			}
		}
	}
	return sb.String()
}

// levelResult 单层匹配结果
type levelResult struct {
	node    *model.Category
	matched bool
}

// resolve 路径逐层匹配，返回能落到的最深节点 ID
// 精确遍 (忽略大小写全等) 失败后整体重来一遍模糊遍 (双向包含)；
// 全都落空时退回 display_order 最靠前的根分类，保证商品总有分类
func (t *categoryTree) resolve(path string) *int64 {
	if len(t.roots) == 0 {
		return nil
	}

	parts := splitPath(path)
	if len(parts) > 0 {
		if id := t.walkLevels(parts, matchExact); id != nil {
			return id
		}
		if id := t.walkLevels(parts, matchFuzzy); id != nil {
			return id
		}
	}

	// 兜底：第一个根分类
	fallback := t.roots[0].ID
	return &fallback
}

// walkLevels 显式的逐层游标：只有上一层命中才下探子层，
// 任意一层落空就停在已命中的最深节点
func (t *categoryTree) walkLevels(parts []string, match func(a, b string) bool) *int64 {
	cursor := t.roots
	var deepest *model.Category

	for _, part := range parts {
		result := matchLevel(cursor, part, match)
		if !result.matched {
			break
		}
		deepest = result.node
		cursor = t.childrenOf[result.node.ID]
	}

	if deepest == nil {
		return nil
	}
	id := deepest.ID
	return &id
}

func matchLevel(candidates []model.Category, name string, match func(a, b string) bool) levelResult {
	for i := range candidates {
		if match(candidates[i].Name, name) {
			return levelResult{node: &candidates[i], matched: true}
		}
	}
	return levelResult{}
}

func matchExact(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func matchFuzzy(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, " > ") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	// 树只有三级，多余层级直接截断
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return parts
}
