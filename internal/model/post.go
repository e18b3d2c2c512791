package model

import "time"

type Post struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	BoardPath    string    `gorm:"size:20;not null;index:idx_board_time,priority:1" json:"board"`
	CreateUserID uint64    `gorm:"not null;index" json:"create_user_id"`
	Title        string    `gorm:"size:100;not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	Upvote       uint64    `gorm:"not null;default:0" json:"upvote"`
	Downvote     uint64    `gorm:"not null;default:0" json:"downvote"`
	CreatedAt    time.Time `gorm:"index:idx_board_time,priority:2,sort:desc" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) String() string {
	return p.Title
}
