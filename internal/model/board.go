package model

import (
	"regexp"
	"time"
)

// Board 版块，path 即主键也是对外路由键
type Board struct {
	Path            string     `gorm:"primaryKey;size:20" json:"path"`
	Name            string     `gorm:"size:60;not null" json:"name"`
	WritePermission Permission `gorm:"size:6;not null;default:'NORMAL';index" json:"write_permission"`
	CreateUserID    uint64     `gorm:"not null;index" json:"create_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Board) TableName() string {
	return "boards"
}

func (b *Board) String() string {
	return b.Name
}

var nonWord = regexp.MustCompile(`\W+`)

// SanitizePath 去掉字母、数字、下划线以外的所有字符
func SanitizePath(path string) string {
	return nonWord.ReplaceAllString(path, "")
}
