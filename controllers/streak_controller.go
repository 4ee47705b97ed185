package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// StreakController serves the parent-facing reading streak view.
type StreakController struct {
	streaks *services.StreakService
}

// NewStreakController creates a new controller instance.
func NewStreakController(streaks *services.StreakService) *StreakController {
	return &StreakController{streaks: streaks}
}

// GetChildStreak returns current and longest consecutive-day streaks for a
// linked child. The parent role is enforced by middleware; the link itself
// is checked here.
func (s *StreakController) GetChildStreak(ctx *gin.Context) {
	parentID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	childID, err := strconv.ParseUint(ctx.Param("childId"), 10, 32)
	if err != nil || childID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid child id")
		return
	}

	streak, err := s.streaks.ChildStreak(ctx.Request.Context(), parentID, uint(childID))
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			utils.Error(ctx, http.StatusForbidden, 40322, "not linked to this child")
			return
		}
		utils.Sugar.Errorf("child streak parent=%d child=%d: %v", parentID, childID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to compute streak")
		return
	}

	utils.Success(ctx, gin.H{
		"child_id":       childID,
		"current_streak": streak.Current,
		"longest_streak": streak.Longest,
	})
}
