package model

import (
	"fmt"
	"time"
)

// Vote 用户对帖子的一次投票，(user_id, post_id) 唯一
type Vote struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_voted_user_post,priority:1" json:"user_id"`
	PostID    uint64    `gorm:"not null;uniqueIndex:uk_voted_user_post,priority:2;index" json:"post_id"`
	IsUpvoted bool      `gorm:"not null;index" json:"is_upvoted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Vote) TableName() string {
	return "voted_posts"
}

// CounterColumn 返回本票对应的帖子计数列
func (v *Vote) CounterColumn() string {
	if v.IsUpvoted {
		return "upvote"
	}
	return "downvote"
}

// VoteLabel 展示用：USER(alice) / POST(hello) / BOARD(general) -> upvoted
func VoteLabel(username, title, board string, isUpvoted bool) string {
	stat := "downvoted"
	if isUpvoted {
		stat = "upvoted"
	}
	return fmt.Sprintf("USER(%s) / POST(%s) / BOARD(%s) -> %s", username, title, board, stat)
}
