package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/models"
)

// Actions reported in VoteResult.Action.
const (
	ActionCreated  = "created"
	ActionSwitched = "switched"
	ActionRemoved  = "removed"
)

// How many times a vote transaction is replayed after losing a
// unique-constraint race before the error surfaces.
const voteRetries = 3

// transition is the outcome of submitting a vote against the current state
// of the (user, target) pair.
type transition struct {
	action     string
	countDelta int // applied to the target's vote_count
	repDelta   int // applied to the target owner's reputation
}

// computeTransition resolves the vote state machine. existing is the vote
// type currently held by the user on the target, or "" for no vote.
func computeTransition(existing, submitted string) transition {
	switch {
	case existing == "":
		if submitted == models.Upvote {
			return transition{ActionCreated, 1, 10}
		}
		return transition{ActionCreated, -1, -2}
	case existing == submitted:
		// Toggle-off reverses what the standing vote granted.
		if submitted == models.Upvote {
			return transition{ActionRemoved, -1, -10}
		}
		return transition{ActionRemoved, 1, 2}
	default:
		if submitted == models.Upvote {
			return transition{ActionSwitched, 2, 12}
		}
		return transition{ActionSwitched, -2, -12}
	}
}

// VoteResult reports what the engine did and the target's state afterwards.
type VoteResult struct {
	Action    string   `json:"action"`
	VoteCount int      `json:"vote_count"`
	Score     int      `json:"score"`
	NewBadges []string `json:"new_badges,omitempty"`
	OwnerID   int      `json:"-"`
}

// VoteService applies votes. Each call is one transaction: the vote row, the
// target's counts, the owner's reputation and any badge grants commit or roll
// back together.
type VoteService struct {
	db        *gorm.DB
	ledger    ReputationLedger
	evaluator Evaluator
	emitter   *events.Emitter
}

func NewVoteService(db *gorm.DB, emitter *events.Emitter) *VoteService {
	return &VoteService{db: db, emitter: emitter}
}

func (s *VoteService) Vote(ctx context.Context, userID int, kind TargetKind, targetID int, voteType string) (*VoteResult, error) {
	if voteType != models.Upvote && voteType != models.Downvote {
		return nil, ErrInvalidVoteType
	}
	store, err := storeFor(kind)
	if err != nil {
		return nil, err
	}

	var result *VoteResult
	for attempt := 0; ; attempt++ {
		result, err = s.voteOnce(ctx, store, userID, kind, targetID, voteType)
		if err == nil || !isUniqueViolation(err) || attempt >= voteRetries {
			break
		}
		// Lost a race creating the vote row; re-read and replay.
	}
	if err != nil {
		return nil, err
	}

	s.publish(result, userID, kind, targetID)
	return result, nil
}

func (s *VoteService) voteOnce(ctx context.Context, store votableStore, userID int, kind TargetKind, targetID int, voteType string) (*VoteResult, error) {
	var result VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := store.get(tx, targetID)
		if err != nil {
			return err
		}

		var existing models.Vote
		existingType := ""
		err = tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, kind, targetID).
			First(&existing).Error
		if err == nil {
			existingType = existing.VoteType
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		tr := computeTransition(existingType, voteType)
		switch tr.action {
		case ActionCreated:
			vote := models.Vote{UserID: userID, TargetKind: string(kind), TargetID: targetID, VoteType: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		case ActionSwitched:
			existing.VoteType = voteType
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case ActionRemoved:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		}

		rec.VoteCount += tr.countDelta
		if err := store.saveCounts(tx, rec); err != nil {
			return err
		}

		if tr.repDelta > 0 {
			if _, err := s.ledger.Add(tx, rec.OwnerID, tr.repDelta); err != nil {
				return err
			}
		} else if tr.repDelta < 0 {
			if _, err := s.ledger.Subtract(tx, rec.OwnerID, -tr.repDelta); err != nil {
				return err
			}
		}

		if err := s.evaluator.UpdateScore(tx, rec); err != nil {
			return err
		}
		granted, err := s.evaluator.EvaluateScoreBadges(tx, rec)
		if err != nil {
			return err
		}

		result = VoteResult{
			Action:    tr.action,
			VoteCount: rec.VoteCount,
			Score:     rec.Score,
			NewBadges: granted,
			OwnerID:   rec.OwnerID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *VoteService) publish(result *VoteResult, userID int, kind TargetKind, targetID int) {
	if s.emitter == nil {
		return
	}
	evtType := events.VoteCast
	if result.Action == ActionRemoved {
		evtType = events.VoteRemoved
	}
	s.emitter.Publish(events.Event{
		Type:        evtType,
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
