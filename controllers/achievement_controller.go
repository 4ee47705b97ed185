package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// AchievementController serves the read-side achievement view.
type AchievementController struct {
	achievements *services.AchievementService
}

// NewAchievementController creates a new controller instance.
func NewAchievementController(achievements *services.AchievementService) *AchievementController {
	return &AchievementController{achievements: achievements}
}

type achievementsPayload struct {
	Achievements []services.AchievementStatus `json:"achievements"`
	Stats        services.AchievementStats    `json:"stats"`
}

// ListUserAchievements joins the active catalog with the caller's state.
func (a *AchievementController) ListUserAchievements(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	cacheKey := "cache:achievements:user:" + strconv.Itoa(int(userID))
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var payload achievementsPayload
		if err := json.Unmarshal(b, &payload); err == nil {
			utils.Success(ctx, payload)
			return
		}
	}

	list, stats, err := a.achievements.UserAchievements(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("list achievements user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load achievements")
		return
	}

	payload := achievementsPayload{Achievements: list, Stats: stats}
	utils.CacheSetJSON(cacheKey, payload, 5*time.Minute)
	utils.Success(ctx, payload)
}
