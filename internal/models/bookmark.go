package models

import "time"

// Bookmark marks a post a user wants to find again. One bookmark per
// (user, target) pair.
type Bookmark struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_bookmark_user_target;not null" json:"user_id"`
	TargetKind string    `gorm:"uniqueIndex:idx_bookmark_user_target;not null" json:"target_kind"`
	TargetID   int       `gorm:"uniqueIndex:idx_bookmark_user_target;not null" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}
