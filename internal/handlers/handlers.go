package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/events"
	"github.com/campusforum/backend/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Comment  *CommentHandler
	Resource *ResourceHandler
	Vote     *VoteHandler
	Bookmark *BookmarkHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, emitter *events.Emitter, moderator services.ContentModerator) *Handler {
	votes := services.NewVoteService(db, emitter)
	bookmarks := services.NewBookmarkService(db, emitter)
	accepts := services.NewAcceptService(db, emitter)
	views := services.NewViewService(db)

	return &Handler{
		Auth:     NewAuthHandler(db),
		Question: NewQuestionHandler(db, accepts, views, moderator),
		Answer:   NewAnswerHandler(db, moderator),
		Comment:  NewCommentHandler(db, moderator),
		Resource: NewResourceHandler(db),
		Vote:     NewVoteHandler(votes),
		Bookmark: NewBookmarkHandler(bookmarks),
		User:     NewUserHandler(db),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// respondServiceError maps engine errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidVoteType), errors.Is(err, services.ErrInvalidTargetKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyBookmarked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
