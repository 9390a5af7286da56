package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/models"
)

// BookmarkResult reports what happened and any badges the target owner earned.
type BookmarkResult struct {
	Bookmarked bool     `json:"bookmarked"`
	NewBadges  []string `json:"new_badges,omitempty"`
	OwnerID    int      `json:"-"`
}

type BookmarkService struct {
	db        *gorm.DB
	evaluator Evaluator
	emitter   *events.Emitter
}

func NewBookmarkService(db *gorm.DB, emitter *events.Emitter) *BookmarkService {
	return &BookmarkService{db: db, emitter: emitter}
}

// Add creates a bookmark and re-evaluates the bookmark badge thresholds.
// A duplicate returns ErrAlreadyBookmarked.
func (s *BookmarkService) Add(ctx context.Context, userID int, kind TargetKind, targetID int) (*BookmarkResult, error) {
	store, err := storeFor(kind)
	if err != nil {
		return nil, err
	}

	var result BookmarkResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := store.get(tx, targetID)
		if err != nil {
			return err
		}

		bookmark := models.Bookmark{UserID: userID, TargetKind: string(kind), TargetID: targetID}
		if err := tx.Create(&bookmark).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyBookmarked
			}
			return err
		}

		granted, err := s.evaluator.EvaluateBookmarkBadges(tx, rec)
		if err != nil {
			return err
		}
		result = BookmarkResult{Bookmarked: true, NewBadges: granted, OwnerID: rec.OwnerID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Publish(events.Event{
			Type:        events.BookmarkAdded,
			ActorID:     userID,
			RecipientID: result.OwnerID,
			TargetKind:  string(kind),
			TargetID:    targetID,
		})
		for _, badge := range result.NewBadges {
			s.emitter.Publish(events.Event{
				Type:        events.BadgeGranted,
				RecipientID: result.OwnerID,
				Badge:       badge,
				TargetKind:  string(kind),
				TargetID:    targetID,
			})
		}
	}
	return &result, nil
}

// Remove deletes the user's bookmark. Removal never re-evaluates badges.
func (s *BookmarkService) Remove(ctx context.Context, userID int, kind TargetKind, targetID int) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, kind, targetID).
		Delete(&models.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Toggle bookmarks the target, or removes the existing bookmark if one is
// already held.
func (s *BookmarkService) Toggle(ctx context.Context, userID int, kind TargetKind, targetID int) (*BookmarkResult, error) {
	result, err := s.Add(ctx, userID, kind, targetID)
	if errors.Is(err, ErrAlreadyBookmarked) {
		if err := s.Remove(ctx, userID, kind, targetID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return &BookmarkResult{Bookmarked: false}, nil
	}
	return result, err
}
