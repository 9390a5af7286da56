package models

import "time"

// Comment is votable like a post but never earns badges.
type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	PostID    int       `gorm:"index" json:"post_id"`
	Text      string    `gorm:"not null" json:"text"`
	VoteCount int       `gorm:"default:0" json:"vote_count"`
	Score     int       `gorm:"default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}
