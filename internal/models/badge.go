package models

import "time"

const (
	BadgeGold   = 1
	BadgeSilver = 2
	BadgeBronze = 3
)

// Badge is static reference data, seeded at startup and immutable afterwards.
type Badge struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Description string    `json:"description"`
	Points      int       `gorm:"default:0" json:"points"`
	Level       int       `json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge links a user to an earned badge, at most once per (user, badge).
type UserBadge struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID   int       `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge     Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyUserReputation buckets reputation gained per user per calendar day.
// The bucket is capped at 200 gained and floored at 0.
type DailyUserReputation struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_daily_rep_user_date;not null" json:"user_id"`
	Date       string    `gorm:"uniqueIndex:idx_daily_rep_user_date;not null" json:"date"`
	Reputation int       `gorm:"default:0" json:"reputation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
