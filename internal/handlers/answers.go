package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
	"github.com/campusforum/backend/internal/services"
)

type AnswerHandler struct {
	db        *gorm.DB
	moderator services.ContentModerator
}

func NewAnswerHandler(db *gorm.DB, moderator services.ContentModerator) *AnswerHandler {
	return &AnswerHandler{db: db, moderator: moderator}
}

// CreateAnswer posts an answer to a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var question models.Question
	if err := h.db.Where("slug = ?", c.Param("slug")).First(&question).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if question.IsClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question is closed"})
		return
	}

	if toxic, err := h.moderator.IsToxic(c.Request.Context(), input.Body); err == nil && toxic {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content flagged by moderation"})
		return
	}

	var answer models.Answer
	err := h.db.Transaction(func(tx *gorm.DB) error {
		post := models.Post{UserID: userID, Body: input.Body}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		answer = models.Answer{PostID: post.ID, QuestionID: question.ID}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		return tx.Model(&question).Update("answer_count", gorm.Expr("answer_count + 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.db.Preload("Post").Preload("Post.User").First(&answer, answer.ID)
	c.JSON(http.StatusCreated, answer)
}
