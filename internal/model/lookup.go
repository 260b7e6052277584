package model

// Color 颜色字典表，按名称精确匹配，不存在则创建
type Color struct {
	BaseModel

	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

func (Color) TableName() string {
	return "colors"
}

// Age 年代字典表
type Age struct {
	BaseModel

	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

func (Age) TableName() string {
	return "ages"
}
