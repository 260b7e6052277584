package service

import (
	"fmt"
	"regexp"
	"strings"

	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== 属性提取 ====================

// Shopify 变体标题里的默认占位，不含任何属性信息
const defaultVariantTitle = "Default Title"

// 固定色板。命名选项和变体标题都没给出颜色时，
// 在标题+描述全文里按它兜底搜索
var colorPalette = []string{
	"Black", "White", "Red", "Blue", "Green", "Yellow", "Orange",
	"Purple", "Pink", "Brown", "Grey", "Gray", "Beige", "Navy",
	"Cream", "Gold", "Silver", "Khaki", "Maroon", "Teal",
}

var (
	sizeTokenRe      = regexp.MustCompile(`(?i)^(XS|S|M|L|XL|XXL)$`)
	conditionTokenRe = regexp.MustCompile(`(?i)^(New|Used|Refurbished)$`)
	colorSearchRe    = regexp.MustCompile(`(?i)\b(` + strings.Join(colorPalette, "|") + `)\b`)
)

// 命名选项的同义词表，按选项名 (不分大小写) 精确或包含匹配
var optionSynonyms = map[string][]string{
	"size":      {"size"},
	"color":     {"color", "colour"},
	"condition": {"condition", "state"},
}

// Attributes 提取结果，空串表示未解析出来
type Attributes struct {
	Size      string
	Color     string
	Condition string
}

// AttributeService 属性归一化
// 纯函数集合，没有任何外部依赖
type AttributeService struct{}

// NewAttributeService 创建属性服务
func NewAttributeService() *AttributeService {
	return &AttributeService{}
}

// Extract 从商品载荷提取 size/color/condition
// 三级兜底：命名选项 → 变体标题分词 → 全文色板搜索，
// 成色最后统一走 NormalizeCondition (空值落到 New)
func (s *AttributeService) Extract(product *shopify.ProductDTO) Attributes {
	var attrs Attributes
	var variant *shopify.VariantDTO
	if len(product.Variants) > 0 {
		variant = &product.Variants[0]
	}

	// 1. 命名选项按 position 取代表变体的对应值
	if variant != nil {
		for _, opt := range product.Options {
			name := strings.ToLower(strings.TrimSpace(opt.Name))
			value := optionValue(variant, opt.Position)
			if value == "" {
				continue
			}
			switch {
			case attrs.Size == "" && matchesSynonym(name, optionSynonyms["size"]):
				attrs.Size = value
			case attrs.Color == "" && matchesSynonym(name, optionSynonyms["color"]):
				attrs.Color = value
			case attrs.Condition == "" && matchesSynonym(name, optionSynonyms["condition"]):
				attrs.Condition = value
			}
		}
	}

	// 2. 变体标题按 " / " 分词逐个匹配
	if variant != nil && variant.Title != "" && variant.Title != defaultVariantTitle {
		for _, token := range strings.Split(variant.Title, " / ") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			switch {
			case attrs.Size == "" && sizeTokenRe.MatchString(token):
				attrs.Size = strings.ToUpper(token)
			case attrs.Color == "" && matchesPalette(token):
				attrs.Color = canonicalColor(token)
			case attrs.Condition == "" && conditionTokenRe.MatchString(token):
				attrs.Condition = token
			}
		}
	}

	// 3. 颜色仍未解析时全文搜索
	if attrs.Color == "" {
		text := product.Title + " " + product.BodyHTML
		if m := colorSearchRe.FindString(text); m != "" {
			attrs.Color = canonicalColor(m)
		}
	}

	// 4. 成色归一化总是执行
	attrs.Condition = s.NormalizeCondition(attrs.Condition)

	return attrs
}

// NormalizeCondition 成色归一化
// 精确 → 忽略大小写 → 子串启发式 → 默认 New
func (s *AttributeService) NormalizeCondition(raw string) string {
	switch raw {
	case model.ConditionNew, model.ConditionRefurbished, model.ConditionUsed:
		return raw
	}

	lower := strings.ToLower(strings.TrimSpace(raw))
	switch lower {
	case "new":
		return model.ConditionNew
	case "refurbished":
		return model.ConditionRefurbished
	case "used":
		return model.ConditionUsed
	}

	// 脏数据启发式，"uesd" 是真实出现过的拼写错误
	switch {
	case strings.Contains(lower, "uesd"), strings.Contains(lower, "second hand"):
		return model.ConditionUsed
	case strings.Contains(lower, "refurb"), strings.Contains(lower, "renewed"):
		return model.ConditionRefurbished
	case strings.Contains(lower, "brand new"):
		return model.ConditionNew
	}

	return model.ConditionNew
}

// NormalizeTags 逗号分隔的标签串拆成干净的切片
func (s *AttributeService) NormalizeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ==================== 工具函数 ====================

func optionValue(variant *shopify.VariantDTO, position int) string {
	switch position {
	case 1:
		return strings.TrimSpace(variant.Option1)
	case 2:
		return strings.TrimSpace(variant.Option2)
	case 3:
		return strings.TrimSpace(variant.Option3)
	}
	return ""
}

func matchesSynonym(name string, synonyms []string) bool {
	for _, syn := range synonyms {
		if name == syn || strings.Contains(name, syn) {
			return true
		}
	}
	return false
}

func matchesPalette(token string) bool {
	for _, c := range colorPalette {
		if strings.EqualFold(token, c) {
			return true
		}
	}
	return false
}

// canonicalColor 统一成首字母大写的色板写法
func canonicalColor(raw string) string {
	for _, c := range colorPalette {
		if strings.EqualFold(raw, c) {
			return c
		}
	}
	return fmt.Sprintf("%s%s", strings.ToUpper(raw[:1]), strings.ToLower(raw[1:]))
}
