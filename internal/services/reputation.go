package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusforum/backend/internal/models"
)

// DailyReputationCap is the most reputation a user can gain in one calendar day.
const DailyReputationCap = 200

// ReputationLedger owns every write to User.Reputation and the per-day
// buckets. Callers must never increment reputation directly: the ledger's
// saturating arithmetic is what keeps the cap and floors true.
type ReputationLedger struct{}

// Add credits points to the user, clamped so the daily bucket never exceeds
// the cap. Returns the user's new total. Must run inside a transaction.
func (l ReputationLedger) Add(tx *gorm.DB, userID, points int) (int, error) {
	user, daily, err := l.lockRows(tx, userID)
	if err != nil {
		return 0, err
	}

	if daily.Reputation+points > DailyReputationCap {
		points = DailyReputationCap - daily.Reputation
	}

	user.Reputation += points
	daily.Reputation += points

	if err := tx.Model(user).Update("reputation", user.Reputation).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(daily).Update("reputation", daily.Reputation).Error; err != nil {
		return 0, err
	}
	return user.Reputation, nil
}

// Subtract debits points with independent floors: the user total never goes
// below 1 and the daily bucket never goes below 0, so the amount actually
// removed from each may differ. Returns the user's new total.
func (l ReputationLedger) Subtract(tx *gorm.DB, userID, points int) (int, error) {
	user, daily, err := l.lockRows(tx, userID)
	if err != nil {
		return 0, err
	}

	user.Reputation = max(1, user.Reputation-points)
	daily.Reputation = max(0, daily.Reputation-points)

	if err := tx.Model(user).Update("reputation", user.Reputation).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(daily).Update("reputation", daily.Reputation).Error; err != nil {
		return 0, err
	}
	return user.Reputation, nil
}

// lockRows fetches the user and today's ledger row under FOR UPDATE locks so
// concurrent votes on the same user can't lose updates on the clamp.
func (l ReputationLedger) lockRows(tx *gorm.DB, userID int) (*models.User, *models.DailyUserReputation, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	var daily models.DailyUserReputation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, today).
		First(&daily).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Create under a savepoint: a unique violation would otherwise
		// abort the whole transaction and the recovery read below could
		// never run.
		daily = models.DailyUserReputation{UserID: userID, Date: today}
		createErr := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&daily).Error
		})
		if createErr != nil {
			if !isUniqueViolation(createErr) {
				return nil, nil, createErr
			}
			// Lost the creation race; the winner's row is there to lock.
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND date = ?", userID, today).
				First(&daily).Error
			if err != nil {
				return nil, nil, err
			}
		}
	} else if err != nil {
		return nil, nil, err
	}

	return &user, &daily, nil
}
