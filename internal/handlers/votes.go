package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusforum/backend/internal/models"
	"github.com/campusforum/backend/internal/services"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Vote returns a handler that casts, switches or removes a vote on the
// given target model (posts, comments or resources).
func (h *VoteHandler) Vote(model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := extractUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		kind, err := services.ParseTargetKind(model)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown target kind"})
			return
		}

		var input models.VoteRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := h.votes.Vote(c.Request.Context(), userID, kind, input.ObjectID, input.VoteType)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		if result.Action == services.ActionRemoved {
			c.JSON(http.StatusOK, gin.H{"message": "Vote removed", "vote_count": result.VoteCount, "score": result.Score})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}
