package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
)

type TargetKind string

const (
	KindPost     TargetKind = "post"
	KindComment  TargetKind = "comment"
	KindResource TargetKind = "resource"
)

// VotableRecord is the slice of a votable row the engines care about.
type VotableRecord struct {
	Kind      TargetKind
	ID        int
	OwnerID   int
	VoteCount int
	Score     int
}

// votableStore adapts one concrete table to the vote/bookmark engines.
type votableStore interface {
	get(tx *gorm.DB, id int) (*VotableRecord, error)
	saveCounts(tx *gorm.DB, rec *VotableRecord) error
}

var votableStores = map[TargetKind]votableStore{
	KindPost:     postStore{},
	KindComment:  commentStore{},
	KindResource: resourceStore{},
}

func storeFor(kind TargetKind) (votableStore, error) {
	store, ok := votableStores[kind]
	if !ok {
		return nil, ErrInvalidTargetKind
	}
	return store, nil
}

type postStore struct{}

func (postStore) get(tx *gorm.DB, id int) (*VotableRecord, error) {
	var post models.Post
	if err := tx.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &VotableRecord{Kind: KindPost, ID: post.ID, OwnerID: post.UserID, VoteCount: post.VoteCount, Score: post.Score}, nil
}

func (postStore) saveCounts(tx *gorm.DB, rec *VotableRecord) error {
	return tx.Model(&models.Post{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{"vote_count": rec.VoteCount, "score": rec.Score}).Error
}

type commentStore struct{}

func (commentStore) get(tx *gorm.DB, id int) (*VotableRecord, error) {
	var comment models.Comment
	if err := tx.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &VotableRecord{Kind: KindComment, ID: comment.ID, OwnerID: comment.UserID, VoteCount: comment.VoteCount, Score: comment.Score}, nil
}

func (commentStore) saveCounts(tx *gorm.DB, rec *VotableRecord) error {
	return tx.Model(&models.Comment{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{"vote_count": rec.VoteCount, "score": rec.Score}).Error
}

type resourceStore struct{}

func (resourceStore) get(tx *gorm.DB, id int) (*VotableRecord, error) {
	var resource models.Resource
	if err := tx.First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &VotableRecord{Kind: KindResource, ID: resource.ID, OwnerID: resource.UserID, VoteCount: resource.VoteCount, Score: resource.Score}, nil
}

func (resourceStore) saveCounts(tx *gorm.DB, rec *VotableRecord) error {
	return tx.Model(&models.Resource{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{"vote_count": rec.VoteCount, "score": rec.Score}).Error
}

// ParseTargetKind maps the URL segment used by the vote endpoint to a kind.
func ParseTargetKind(s string) (TargetKind, error) {
	switch s {
	case "posts", "post":
		return KindPost, nil
	case "comments", "comment":
		return KindComment, nil
	case "resources", "resource":
		return KindResource, nil
	default:
		return "", ErrInvalidTargetKind
	}
}
