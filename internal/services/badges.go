package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
)

// BadgeService grants named badges. Grants are idempotent: a user holds at
// most one UserBadge per badge and re-granting returns the existing row.
type BadgeService struct{}

// Assign looks up the badge by name and grants it to the user. Unknown badge
// names are ignored and return (nil, false, nil) so evaluators stay resilient
// to catalog drift. The bool reports whether a new grant was created.
func (BadgeService) Assign(tx *gorm.DB, userID int, badgeName string) (*models.UserBadge, bool, error) {
	var badge models.Badge
	if err := tx.Where("name = ?", badgeName).First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var userBadge models.UserBadge
	err := tx.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&userBadge).Error
	if err == nil {
		return &userBadge, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// Create under a savepoint so a concurrent grant's unique violation
	// doesn't abort the caller's transaction.
	userBadge = models.UserBadge{UserID: userID, BadgeID: badge.ID}
	createErr := tx.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&userBadge).Error
	})
	if createErr != nil {
		if isUniqueViolation(createErr) {
			// Concurrent grant won; return theirs.
			err = tx.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&userBadge).Error
			if err != nil {
				return nil, false, err
			}
			return &userBadge, false, nil
		}
		return nil, false, createErr
	}
	return &userBadge, true, nil
}
