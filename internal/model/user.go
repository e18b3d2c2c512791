package model

import (
	"strings"
	"time"
)

// DefaultAvatar 未上传头像时使用的占位图
const DefaultAvatar = "default_avatar.png"

type User struct {
	ID         uint64     `gorm:"primaryKey" json:"id"`
	Username   string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email      string     `gorm:"size:254;not null;default:''" json:"email"`
	Password   string     `gorm:"size:255;not null;default:''" json:"-"`
	Bio        string     `gorm:"size:100;not null;default:''" json:"bio"`
	Avatar     string     `gorm:"size:255;not null;default:'default_avatar.png'" json:"avatar"`
	Permission Permission `gorm:"size:6;not null;default:'NORMAL';index" json:"permission"`
	IsActive   bool       `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// AvatarURL 拼接媒体前缀，例如 "/media/" + "default_avatar.png"
func (u *User) AvatarURL(mediaURL string) string {
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return mediaURL + strings.TrimPrefix(u.Avatar, "/")
}

func (u *User) String() string {
	return u.Username
}
