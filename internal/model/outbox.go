package model

import "time"

const (
	EventVoteCast      = "vote_cast"
	EventVoteRetracted = "vote_retracted"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// VoteOutbox 投票事件表，与投票写入同一事务
type VoteOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventID   string `gorm:"size:36;not null;uniqueIndex"`
	EventType string `gorm:"size:16;not null"` // vote_cast / vote_retracted
	UserID    uint64 `gorm:"not null"`
	PostID    uint64 `gorm:"not null"`
	IsUpvoted bool   `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"` // 0=pending 1=sent 2=failed
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VoteOutbox) TableName() string { return "vote_outbox" }
