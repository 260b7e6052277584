package service

import (
	"testing"

	"retail_sync_v1_202608/pkg/shopify"
)

// ==================== 成色归一化 ====================

func TestNormalizeCondition(t *testing.T) {
	svc := NewAttributeService()

	cases := []struct {
		raw  string
		want string
	}{
		// 精确命中
		{"New", "New"},
		{"Refurbished", "Refurbished"},
		{"Used", "Used"},
		// 忽略大小写
		{"new", "New"},
		{"USED", "Used"},
		{"  refurbished  ", "Refurbished"},
		// 脏数据启发式
		{"Uesd", "Used"},
		{"uesd - great condition", "Used"},
		{"Second Hand", "Used"},
		{"refurb", "Refurbished"},
		{"Renewed by seller", "Refurbished"},
		{"Brand New with tags", "New"},
		// 空值与未知值都落到 New
		{"", "New"},
		{"mystery", "New"},
	}

	for _, c := range cases {
		if got := svc.NormalizeCondition(c.raw); got != c.want {
			t.Errorf("NormalizeCondition(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

// ==================== 属性提取 ====================

func TestExtract_NamedOptions(t *testing.T) {
	svc := NewAttributeService()

	product := &shopify.ProductDTO{
		Title: "Vintage Jacket",
		Options: []shopify.OptionDTO{
			{Name: "Size", Position: 1},
			{Name: "Colour", Position: 2},
			{Name: "Condition", Position: 3},
		},
		Variants: []shopify.VariantDTO{
			{Title: "M / Navy / Used", Option1: "M", Option2: "Navy", Option3: "Used"},
		},
	}

	attrs := svc.Extract(product)
	if attrs.Size != "M" {
		t.Errorf("size = %q, want M", attrs.Size)
	}
	if attrs.Color != "Navy" {
		t.Errorf("color = %q, want Navy", attrs.Color)
	}
	if attrs.Condition != "Used" {
		t.Errorf("condition = %q, want Used", attrs.Condition)
	}
}

func TestExtract_SynonymState(t *testing.T) {
	svc := NewAttributeService()

	// "State" 是 condition 的同义选项名
	product := &shopify.ProductDTO{
		Options: []shopify.OptionDTO{
			{Name: "State", Position: 1},
		},
		Variants: []shopify.VariantDTO{
			{Title: "second hand", Option1: "second hand"},
		},
	}

	attrs := svc.Extract(product)
	if attrs.Condition != "Used" {
		t.Errorf("condition = %q, want Used", attrs.Condition)
	}
}

func TestExtract_VariantTitleTokens(t *testing.T) {
	svc := NewAttributeService()

	// 没有命名选项时按变体标题 " / " 分词
	product := &shopify.ProductDTO{
		Variants: []shopify.VariantDTO{
			{Title: "xl / Red / New"},
		},
	}

	attrs := svc.Extract(product)
	if attrs.Size != "XL" {
		t.Errorf("size = %q, want XL", attrs.Size)
	}
	if attrs.Color != "Red" {
		t.Errorf("color = %q, want Red", attrs.Color)
	}
	if attrs.Condition != "New" {
		t.Errorf("condition = %q, want New", attrs.Condition)
	}
}

func TestExtract_DefaultTitleIgnored(t *testing.T) {
	svc := NewAttributeService()

	// "Default Title" 是占位符，不得被当作属性来源
	product := &shopify.ProductDTO{
		Title: "Plain tee",
		Variants: []shopify.VariantDTO{
			{Title: "Default Title"},
		},
	}

	attrs := svc.Extract(product)
	if attrs.Size != "" {
		t.Errorf("size = %q, want 空", attrs.Size)
	}
	if attrs.Color != "" {
		t.Errorf("color = %q, want 空", attrs.Color)
	}
	// 成色兜底 New
	if attrs.Condition != "New" {
		t.Errorf("condition = %q, want New", attrs.Condition)
	}
}

func TestExtract_ColorFallbackFullText(t *testing.T) {
	svc := NewAttributeService()

	// 选项和变体标题都没给颜色时，在标题+描述里按色板搜索
	product := &shopify.ProductDTO{
		Title:    "Cozy sweater",
		BodyHTML: "<p>A beautiful TEAL knit for winter.</p>",
		Variants: []shopify.VariantDTO{
			{Title: "Default Title"},
		},
	}

	attrs := svc.Extract(product)
	if attrs.Color != "Teal" {
		t.Errorf("color = %q, want Teal (全文兜底且统一首字母大写)", attrs.Color)
	}
}

func TestExtract_NoVariants(t *testing.T) {
	svc := NewAttributeService()

	attrs := svc.Extract(&shopify.ProductDTO{Title: "Bare product"})
	if attrs.Condition != "New" {
		t.Errorf("无变体商品成色 = %q, want New", attrs.Condition)
	}
}

// ==================== 标签归一化 ====================

func TestNormalizeTags(t *testing.T) {
	svc := NewAttributeService()

	tags := svc.NormalizeTags(" vintage, denim ,, 90s ")
	want := []string{"vintage", "denim", "90s"}
	if len(tags) != len(want) {
		t.Fatalf("tags 数量 = %d, want %d", len(tags), len(want))
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}

	if got := svc.NormalizeTags(""); got != nil {
		t.Errorf("空串应返回 nil, got %v", got)
	}
}
