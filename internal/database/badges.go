package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusforum/backend/internal/models"
)

// SeedBadges upserts the badge catalog by name. Safe to run on every boot.
func SeedBadges(db *gorm.DB) error {
	badges := []models.Badge{
		{Name: "Curious", Description: "Ask a well-received question on 5 separate days, and maintain a positive question record", Level: models.BadgeBronze},
		{Name: "Inquisitive", Description: "Ask a well-received question on 30 separate days, and maintain a positive question record", Level: models.BadgeSilver},
		{Name: "Socratic", Description: "Ask a well-received question on 100 separate days, and maintain a positive question record", Level: models.BadgeGold},
		{Name: "Favorite Question", Description: "Question saved by 25 users", Level: models.BadgeSilver},
		{Name: "Stellar Question", Description: "Question saved by 100 users", Level: models.BadgeGold},
		{Name: "Nice Question", Description: "Question score of 10 or more", Level: models.BadgeBronze},
		{Name: "Good Question", Description: "Question score of 25 or more", Level: models.BadgeSilver},
		{Name: "Great Question", Description: "Question score of 100 or more", Level: models.BadgeGold},
		{Name: "Popular Question", Description: "Question with 1,000 views", Level: models.BadgeBronze},
		{Name: "Notable Question", Description: "Question with 2,500 views", Level: models.BadgeSilver},
		{Name: "Famous Question", Description: "Question with 10,000 views", Level: models.BadgeGold},
		{Name: "Scholar", Description: "Ask a question and accept an answer", Level: models.BadgeBronze},
		{Name: "Student", Description: "First question with score of 1 or more", Level: models.BadgeBronze},
		{Name: "Favorite Answer", Description: "Answer saved by 25 users", Level: models.BadgeSilver},
		{Name: "Stellar Answer", Description: "Answer saved by 100 users", Level: models.BadgeGold},
		{Name: "Guru", Description: "Accepted answer and score of 40 or more", Level: models.BadgeSilver},
		{Name: "Nice Answer", Description: "Answer score of 10 or more", Level: models.BadgeBronze},
		{Name: "Good Answer", Description: "Answer score of 25 or more", Level: models.BadgeSilver},
		{Name: "Great Answer", Description: "Answer score of 100 or more", Level: models.BadgeGold},
		{Name: "Self-Learner", Description: "Answer your own question with score of 3 or more", Level: models.BadgeBronze},
		{Name: "Teacher", Description: "Answer a question with score of 1 or more", Level: models.BadgeBronze},
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "points", "level"}),
	}).Create(&badges).Error
}
