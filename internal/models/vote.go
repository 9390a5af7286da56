package models

import "time"

const (
	Upvote   = "upvote"
	Downvote = "downvote"
)

// Vote tracks a single user's vote on a votable target. The composite unique
// index guarantees at most one vote per (user, target) pair; concurrent
// creates for the same pair fail on the constraint and are retried as updates.
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_vote_user_target;not null" json:"user_id"`
	TargetKind string    `gorm:"uniqueIndex:idx_vote_user_target;not null" json:"target_kind"`
	TargetID   int       `gorm:"uniqueIndex:idx_vote_user_target;not null" json:"target_id"`
	VoteType   string    `gorm:"not null" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VoteRequest struct {
	ObjectID int    `json:"object_id" binding:"required"`
	VoteType string `json:"vote_type" binding:"required"`
}
