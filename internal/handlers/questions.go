package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusforum/backend/internal/models"
	"github.com/campusforum/backend/internal/services"
)

type QuestionHandler struct {
	db        *gorm.DB
	accepts   *services.AcceptService
	views     *services.ViewService
	moderator services.ContentModerator
}

func NewQuestionHandler(db *gorm.DB, accepts *services.AcceptService, views *services.ViewService, moderator services.ContentModerator) *QuestionHandler {
	return &QuestionHandler{db: db, accepts: accepts, views: views, moderator: moderator}
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// GetQuestions lists questions, newest first
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	var questions []models.Question
	if err := h.db.Preload("Post").Preload("Post.User").Order("created_at desc").Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	c.JSON(http.StatusOK, questions)
}

// GetQuestion returns one question by slug and tracks the view
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	slug := c.Param("slug")

	var question models.Question
	if err := h.db.Preload("Post").Preload("Post.User").Where("slug = ?", slug).First(&question).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if userID, ok := extractUserID(c); ok {
		if count, err := h.views.TrackView(c.Request.Context(), userID, question.ID); err == nil {
			question.ViewCount = count
		}
	}

	var answers []models.Answer
	h.db.Preload("Post").Preload("Post.User").Where("question_id = ?", question.ID).Order("created_at asc").Find(&answers)
	if answers == nil {
		answers = []models.Answer{}
	}

	c.JSON(http.StatusOK, gin.H{
		"question": question,
		"answers":  answers,
	})
}

// CreateQuestion creates a question with its backing post
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Best effort: a moderation outage never blocks posting.
	if toxic, err := h.moderator.IsToxic(c.Request.Context(), input.Title+"\n"+input.Body); err == nil && toxic {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content flagged by moderation"})
		return
	}

	var question models.Question
	err := h.db.Transaction(func(tx *gorm.DB) error {
		post := models.Post{UserID: userID, Body: input.Body}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		question = models.Question{
			PostID: post.ID,
			Title:  input.Title,
			Slug:   fmt.Sprintf("%s-%d", slugify(input.Title), post.ID),
		}
		return tx.Create(&question).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("Post").Preload("Post.User").First(&question, question.ID)
	c.JSON(http.StatusCreated, question)
}

// AcceptAnswer marks an answer as accepted, or revokes acceptance when the
// accepted answer is submitted again
func (h *QuestionHandler) AcceptAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.AcceptAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer ID must be provided"})
		return
	}

	result, err := h.accepts.AcceptAnswer(c.Request.Context(), userID, c.Param("slug"), input.AnswerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Answer accepted successfully"
	if !result.Accepted {
		message = "Answer unaccepted successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "accepted": result.Accepted, "new_badges": result.NewBadges})
}
