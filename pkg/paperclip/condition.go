package paperclip

import "retail_sync_v1_202608/internal/model"

// Paperclip 用小整数表示成色，与本地字符串枚举互译。
// 两个方向的映射不对称：推送只认三个码，拉取时未知码一律按 Used 处理

const (
	ConditionTypeNew         = 0
	ConditionTypeRefurbished = 1
	ConditionTypeUsed        = 4
)

// ToConditionType 本地成色转市场数字码
func ToConditionType(condition string) int {
	switch condition {
	case model.ConditionNew:
		return ConditionTypeNew
	case model.ConditionRefurbished:
		return ConditionTypeRefurbished
	default:
		return ConditionTypeUsed
	}
}

// FromConditionType 市场数字码转本地成色
func FromConditionType(code int) string {
	switch code {
	case ConditionTypeNew:
		return model.ConditionNew
	case ConditionTypeRefurbished:
		return model.ConditionRefurbished
	default:
		return model.ConditionUsed
	}
}
