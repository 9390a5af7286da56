package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/models"
)

const (
	acceptAnswererBonus = 15
	acceptAskerBonus    = 2
	guruScoreThreshold  = 40
)

// AcceptResult reports whether the answer ended up accepted.
type AcceptResult struct {
	Accepted  bool     `json:"accepted"`
	NewBadges []string `json:"new_badges,omitempty"`
	OwnerID   int      `json:"-"`
}

// AcceptService handles marking an answer as the accepted one. Accepting
// pays the answerer 15 and the asker 2; self-accepting pays nothing.
// Revoking subtracts exactly what acceptance paid.
type AcceptService struct {
	db      *gorm.DB
	ledger  ReputationLedger
	badges  BadgeService
	emitter *events.Emitter
}

func NewAcceptService(db *gorm.DB, emitter *events.Emitter) *AcceptService {
	return &AcceptService{db: db, emitter: emitter}
}

func (s *AcceptService) AcceptAnswer(ctx context.Context, actorID int, slug string, answerID int) (*AcceptResult, error) {
	var result AcceptResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question models.Question
		err := tx.Preload("Post").Where("slug = ?", slug).First(&question).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Only the asker decides which answer solved the question.
		if question.Post.UserID != actorID {
			return ErrForbidden
		}

		var answer models.Answer
		err = tx.Preload("Post").Where("id = ? AND question_id = ?", answerID, question.ID).First(&answer).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Re-accepting the already accepted answer revokes it.
		if question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answer.ID {
			if err := s.revoke(tx, &answer, actorID); err != nil {
				return err
			}
			question.AcceptedAnswerID = nil
			question.IsAnswered = false
			if err := tx.Model(&question).Updates(map[string]interface{}{
				"accepted_answer_id": nil,
				"is_answered":        false,
			}).Error; err != nil {
				return err
			}
			result = AcceptResult{Accepted: false, OwnerID: answer.Post.UserID}
			return nil
		}

		// Moving acceptance: revoke the previous answer first.
		if question.AcceptedAnswerID != nil {
			var previous models.Answer
			if err := tx.Preload("Post").First(&previous, *question.AcceptedAnswerID).Error; err != nil {
				return err
			}
			if err := s.revoke(tx, &previous, actorID); err != nil {
				return err
			}
		}

		if err := tx.Model(&answer).Update("is_accepted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&question).Updates(map[string]interface{}{
			"accepted_answer_id": answer.ID,
			"is_answered":        true,
		}).Error; err != nil {
			return err
		}

		// Accepting your own answer does not pay out.
		if answer.Post.UserID != actorID {
			if _, err := s.ledger.Add(tx, answer.Post.UserID, acceptAnswererBonus); err != nil {
				return err
			}
			if _, err := s.ledger.Add(tx, actorID, acceptAskerBonus); err != nil {
				return err
			}
		}

		var granted []string
		if answer.Post.Score >= guruScoreThreshold {
			_, created, err := s.badges.Assign(tx, answer.Post.UserID, "Guru")
			if err != nil {
				return err
			}
			if created {
				granted = append(granted, "Guru")
			}
		}

		result = AcceptResult{Accepted: true, NewBadges: granted, OwnerID: answer.Post.UserID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.emitter != nil && result.Accepted {
		s.emitter.Publish(events.Event{
			Type:        events.AnswerAccepted,
			ActorID:     actorID,
			RecipientID: result.OwnerID,
			TargetKind:  "answer",
			TargetID:    answerID,
		})
		for _, badge := range result.NewBadges {
			s.emitter.Publish(events.Event{
				Type:        events.BadgeGranted,
				RecipientID: result.OwnerID,
				Badge:       badge,
			})
		}
	}
	return &result, nil
}

// revoke clears is_accepted on the answer and takes back the acceptance
// reputation, unless it was a self-accept that never paid out.
func (s *AcceptService) revoke(tx *gorm.DB, answer *models.Answer, actorID int) error {
	if err := tx.Model(answer).Update("is_accepted", false).Error; err != nil {
		return err
	}
	if answer.Post.UserID == actorID {
		return nil
	}
	if _, err := s.ledger.Subtract(tx, answer.Post.UserID, acceptAnswererBonus); err != nil {
		return err
	}
	if _, err := s.ledger.Subtract(tx, actorID, acceptAskerBonus); err != nil {
		return err
	}
	return nil
}
