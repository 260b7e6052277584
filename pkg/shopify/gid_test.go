package shopify

import "testing"

func TestNumericID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12345", "12345"},
		{"gid://shopify/Product/12345", "12345"},
		{"gid://shopify/InventoryItem/7", "7"},
	}
	for _, c := range cases {
		if got := NumericID(c.in); got != c.want {
			t.Errorf("NumericID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestProductEncodings(t *testing.T) {
	// 数字入参
	numeric, gid := ProductEncodings("12345")
	if numeric != "12345" || gid != "gid://shopify/Product/12345" {
		t.Errorf("数字入参: (%q, %q)", numeric, gid)
	}

	// GID 入参
	numeric, gid = ProductEncodings("gid://shopify/Product/12345")
	if numeric != "12345" || gid != "gid://shopify/Product/12345" {
		t.Errorf("GID 入参: (%q, %q)", numeric, gid)
	}

	// 非数字异常写法退化为同一个值
	numeric, gid = ProductEncodings("weird-id")
	if numeric != "weird-id" || gid != "weird-id" {
		t.Errorf("异常写法: (%q, %q)", numeric, gid)
	}
}

func TestGIDBuilders(t *testing.T) {
	if got := ProductGID(1); got != "gid://shopify/Product/1" {
		t.Errorf("ProductGID = %q", got)
	}
	if got := InventoryItemGID(2); got != "gid://shopify/InventoryItem/2" {
		t.Errorf("InventoryItemGID = %q", got)
	}
	if got := LocationGID(3); got != "gid://shopify/Location/3" {
		t.Errorf("LocationGID = %q", got)
	}
	if got := VariantGID(4); got != "gid://shopify/ProductVariant/4" {
		t.Errorf("VariantGID = %q", got)
	}
}
