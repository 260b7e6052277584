package shopify

import (
	"fmt"
	"strconv"
	"strings"
)

// Shopify 同一个对象在 REST webhook 里是纯数字 ID，在 GraphQL 里是
// gid://shopify/Type/数字。两种写法在 create/update/重放之间随机出现，
// 身份查询必须同时带上两种编码

const gidPrefix = "gid://shopify/"

// ProductGID 数字 ID 转商品 GID
func ProductGID(id int64) string {
	return fmt.Sprintf("%sProduct/%d", gidPrefix, id)
}

// InventoryItemGID 数字 ID 转库存项 GID
func InventoryItemGID(id int64) string {
	return fmt.Sprintf("%sInventoryItem/%d", gidPrefix, id)
}

// LocationGID 数字 ID 转库位 GID
func LocationGID(id int64) string {
	return fmt.Sprintf("%sLocation/%d", gidPrefix, id)
}

// VariantGID 数字 ID 转变体 GID
func VariantGID(id int64) string {
	return fmt.Sprintf("%sProductVariant/%d", gidPrefix, id)
}

// NumericID 从 GID 提取末段数字；传入本身是数字串则原样返回
func NumericID(id string) string {
	if !strings.HasPrefix(id, gidPrefix) {
		return id
	}
	parts := strings.Split(id, "/")
	return parts[len(parts)-1]
}

// ProductEncodings 给出商品 ID 的两种写法 (数字串, GID)，
// 入参可以是其中任意一种
func ProductEncodings(raw string) (numeric string, gid string) {
	numeric = NumericID(raw)
	if n, err := strconv.ParseInt(numeric, 10, 64); err == nil {
		gid = ProductGID(n)
	} else {
		// 非数字的异常写法，两种编码退化为同一个值
		gid = raw
	}
	return numeric, gid
}
