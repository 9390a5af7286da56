package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
	"github.com/campusforum/backend/internal/services"
)

type CommentHandler struct {
	db        *gorm.DB
	moderator services.ContentModerator
}

func NewCommentHandler(db *gorm.DB, moderator services.ContentModerator) *CommentHandler {
	return &CommentHandler{db: db, moderator: moderator}
}

// GetComments returns all comments on a post
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID := c.Param("id")
	var comments []models.Comment

	if err := h.db.Where("post_id = ?", postID).Preload("User").Order("created_at asc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment adds a comment to a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if toxic, err := h.moderator.IsToxic(c.Request.Context(), input.Text); err == nil && toxic {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content flagged by moderation"})
		return
	}

	comment := models.Comment{UserID: userID, PostID: post.ID, Text: input.Text}
	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	c.JSON(http.StatusCreated, comment)
}
