package models

import "time"

// ViewTracker records the first time a user views a question so repeat visits
// don't inflate view_count.
type ViewTracker struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_view_user_target;not null" json:"user_id"`
	QuestionID int       `gorm:"uniqueIndex:idx_view_user_target;not null" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
