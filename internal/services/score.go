package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
)

// Evaluator recomputes scores from the votes table and re-checks badge
// thresholds. Evaluation runs on every qualifying mutation; grants are
// idempotent so repeating it is safe.
type Evaluator struct {
	Badges BadgeService
}

// UpdateScore derives the target's score from its current vote set. The vote
// set, not the incrementally maintained vote_count, is the source of truth.
func (e Evaluator) UpdateScore(tx *gorm.DB, rec *VotableRecord) error {
	var upvotes, downvotes int64
	err := tx.Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ? AND vote_type = ?", rec.Kind, rec.ID, models.Upvote).
		Count(&upvotes).Error
	if err != nil {
		return err
	}
	err = tx.Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ? AND vote_type = ?", rec.Kind, rec.ID, models.Downvote).
		Count(&downvotes).Error
	if err != nil {
		return err
	}

	rec.Score = int(upvotes - downvotes)
	store, err := storeFor(rec.Kind)
	if err != nil {
		return err
	}
	return store.saveCounts(tx, rec)
}

// EvaluateScoreBadges checks the score thresholds for the target. Only posts
// backing a question or an answer can earn score badges; comments and
// resources have no thresholds. Highest threshold wins, one badge per call.
func (e Evaluator) EvaluateScoreBadges(tx *gorm.DB, rec *VotableRecord) ([]string, error) {
	if rec.Kind != KindPost {
		return nil, nil
	}

	var question models.Question
	err := tx.Where("post_id = ?", rec.ID).First(&question).Error
	if err == nil {
		return e.checkQuestionScoreBadges(tx, rec)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var answer models.Answer
	err = tx.Where("post_id = ?", rec.ID).First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e.checkAnswerScoreBadges(tx, rec, &answer)
}

func (e Evaluator) checkQuestionScoreBadges(tx *gorm.DB, rec *VotableRecord) ([]string, error) {
	switch {
	case rec.Score >= 100:
		return e.grant(tx, rec.OwnerID, "Great Question")
	case rec.Score >= 25:
		return e.grant(tx, rec.OwnerID, "Good Question")
	case rec.Score >= 10:
		return e.grant(tx, rec.OwnerID, "Nice Question")
	}
	return nil, nil
}

func (e Evaluator) checkAnswerScoreBadges(tx *gorm.DB, rec *VotableRecord, answer *models.Answer) ([]string, error) {
	switch {
	case rec.Score >= 100:
		return e.grant(tx, rec.OwnerID, "Great Answer")
	case rec.Score >= 25:
		return e.grant(tx, rec.OwnerID, "Good Answer")
	case rec.Score >= 10:
		return e.grant(tx, rec.OwnerID, "Nice Answer")
	case rec.Score >= 3:
		selfAnswer, err := e.isSelfAnswer(tx, rec.OwnerID, answer.QuestionID)
		if err != nil {
			return nil, err
		}
		if selfAnswer {
			return e.grant(tx, rec.OwnerID, "Self-Learner")
		}
		return e.grant(tx, rec.OwnerID, "Teacher")
	case rec.Score >= 1:
		return e.grant(tx, rec.OwnerID, "Teacher")
	}
	return nil, nil
}

// isSelfAnswer reports whether the answer owner also asked the question.
func (e Evaluator) isSelfAnswer(tx *gorm.DB, answerOwnerID, questionID int) (bool, error) {
	var question models.Question
	if err := tx.Preload("Post").First(&question, questionID).Error; err != nil {
		return false, err
	}
	return question.Post.UserID == answerOwnerID, nil
}

// EvaluateBookmarkBadges checks save-count thresholds after a new bookmark.
func (e Evaluator) EvaluateBookmarkBadges(tx *gorm.DB, rec *VotableRecord) ([]string, error) {
	if rec.Kind != KindPost {
		return nil, nil
	}

	var bookmarks int64
	err := tx.Model(&models.Bookmark{}).
		Where("target_kind = ? AND target_id = ?", rec.Kind, rec.ID).
		Count(&bookmarks).Error
	if err != nil {
		return nil, err
	}

	var question models.Question
	err = tx.Where("post_id = ?", rec.ID).First(&question).Error
	if err == nil {
		switch {
		case bookmarks >= 100:
			return e.grant(tx, rec.OwnerID, "Stellar Question")
		case bookmarks >= 25:
			return e.grant(tx, rec.OwnerID, "Favorite Question")
		}
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var answer models.Answer
	err = tx.Where("post_id = ?", rec.ID).First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	switch {
	case bookmarks >= 100:
		return e.grant(tx, rec.OwnerID, "Stellar Answer")
	case bookmarks >= 25:
		return e.grant(tx, rec.OwnerID, "Favorite Answer")
	}
	return nil, nil
}

// CheckQuestionViewBadges re-checks the view-count thresholds for a question.
func (e Evaluator) CheckQuestionViewBadges(tx *gorm.DB, question *models.Question) ([]string, error) {
	var post models.Post
	if err := tx.First(&post, question.PostID).Error; err != nil {
		return nil, err
	}

	switch {
	case question.ViewCount >= 10_000:
		return e.grant(tx, post.UserID, "Famous Question")
	case question.ViewCount >= 2500:
		return e.grant(tx, post.UserID, "Notable Question")
	case question.ViewCount >= 1000:
		return e.grant(tx, post.UserID, "Popular Question")
	}
	return nil, nil
}

func (e Evaluator) grant(tx *gorm.DB, userID int, name string) ([]string, error) {
	_, created, err := e.Badges.Assign(tx, userID, name)
	if err != nil {
		return nil, err
	}
	if created {
		return []string{name}, nil
	}
	return nil, nil
}
