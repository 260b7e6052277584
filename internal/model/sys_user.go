package model

// SysUser 后台用户
type SysUser struct {
	BaseModel

	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	// bcrypt 哈希
	Password string `gorm:"size:255;not null" json:"-"`
	Nickname string `gorm:"size:50" json:"nickname"`
	Status   int    `gorm:"default:1;comment:1正常 0禁用" json:"status"`
}

func (SysUser) TableName() string {
	return "sys_users"
}
