package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
)

// ViewService counts distinct viewers per question and re-checks the view
// badge thresholds when the count grows.
type ViewService struct {
	db        *gorm.DB
	evaluator Evaluator
}

func NewViewService(db *gorm.DB) *ViewService {
	return &ViewService{db: db}
}

// TrackView records the first view of a question by a user. Repeat views are
// no-ops. Returns the question's current view count.
func (s *ViewService) TrackView(ctx context.Context, userID, questionID int) (int, error) {
	viewCount := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		viewCount = question.ViewCount

		// Savepoint keeps the transaction usable when a duplicate view
		// races us to the tracker row.
		tracker := models.ViewTracker{UserID: userID, QuestionID: questionID}
		err := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&tracker).Error
		})
		if err != nil {
			if isUniqueViolation(err) {
				return nil // already seen by this user
			}
			return err
		}

		// Increment in SQL so concurrent first views by different users
		// can't lose updates, then re-read for the badge thresholds.
		if err := tx.Model(&models.Question{}).Where("id = ?", questionID).
			Update("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.First(&question, questionID).Error; err != nil {
			return err
		}
		viewCount = question.ViewCount

		_, err = s.evaluator.CheckQuestionViewBadges(tx, &question)
		return err
	})
	if err != nil {
		return 0, err
	}
	return viewCount, nil
}
