package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// ChallengeController serves the open-challenge listing.
type ChallengeController struct {
	challenges *services.ChallengeService
}

// NewChallengeController creates a new controller instance.
func NewChallengeController(challenges *services.ChallengeService) *ChallengeController {
	return &ChallengeController{challenges: challenges}
}

// ListActiveChallenges lists challenges whose window contains now, joined
// with the caller's progress. Optional query filters: challenge_type,
// start_date, end_date (RFC 3339).
func (c *ChallengeController) ListActiveChallenges(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	filter := services.ChallengeFilter{Type: ctx.Query("challenge_type")}
	if raw := ctx.Query("start_date"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40029, "invalid start_date")
			return
		}
		filter.StartAfter = &ts
	}
	if raw := ctx.Query("end_date"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "invalid end_date")
			return
		}
		filter.EndBefore = &ts
	}

	list, err := c.challenges.ActiveChallenges(ctx.Request.Context(), userID, filter)
	if err != nil {
		utils.Sugar.Errorf("list challenges user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load challenges")
		return
	}
	utils.Success(ctx, gin.H{"challenges": list})
}
