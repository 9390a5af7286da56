package models

import "time"

// Resource is a shared file or link. It accumulates votes but there are no
// resource badge thresholds.
type Resource struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	UserID      int       `json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url"`
	Category    string    `gorm:"index" json:"category"`
	VoteCount   int       `gorm:"default:0" json:"vote_count"`
	Score       int       `gorm:"default:0" json:"score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateResourceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
	Category    string `json:"category"`
}
