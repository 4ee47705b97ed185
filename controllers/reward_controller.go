package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// RewardController exposes the rewards catalog and the points ledger.
type RewardController struct {
	ledger *services.LedgerService
}

// NewRewardController creates a new controller instance.
func NewRewardController(ledger *services.LedgerService) *RewardController {
	return &RewardController{ledger: ledger}
}

type rewardCatalogPayload struct {
	Rewards    []services.RewardWithStatus `json:"rewards"`
	UserPoints int                         `json:"user_points"`
}

// ListRewards returns active rewards annotated with the caller's unlock
// state and current balance, cached per user.
func (r *RewardController) ListRewards(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	rewardType := ctx.Query("reward_type")

	cacheKey := "cache:rewards:user:" + strconv.Itoa(int(userID)) + ":type:" + rewardType
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var payload rewardCatalogPayload
		if err := json.Unmarshal(b, &payload); err == nil {
			utils.Success(ctx, payload)
			return
		}
	}

	rewards, points, err := r.ledger.RewardCatalog(ctx.Request.Context(), userID, rewardType)
	if err != nil {
		utils.Sugar.Errorf("list rewards user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load rewards")
		return
	}

	payload := rewardCatalogPayload{Rewards: rewards, UserPoints: points}
	utils.CacheSetJSON(cacheKey, payload, 5*time.Minute)
	utils.Success(ctx, payload)
}

// UnlockReward spends points on a reward. Repeated calls after a network
// retry get a stable "already unlocked" answer instead of a second charge.
func (r *RewardController) UnlockReward(ctx *gin.Context) {
	var req struct {
		RewardID uint `json:"reward_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := r.ledger.Unlock(ctx.Request.Context(), userID, req.RewardID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40423, "reward not found or inactive")
		case errors.Is(err, services.ErrAlreadyUnlocked):
			utils.Error(ctx, http.StatusConflict, 40910, "reward already unlocked")
		case errors.Is(err, services.ErrInsufficientPoints):
			utils.Error(ctx, http.StatusBadRequest, 40028, "insufficient points")
		default:
			utils.Sugar.Errorf("unlock reward user=%d reward=%d: %v", userID, req.RewardID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to unlock reward")
		}
		return
	}

	utils.InvalidateByPrefix("cache:rewards:user:" + strconv.Itoa(int(userID)))

	utils.Success(ctx, gin.H{
		"message":         "reward unlocked",
		"reward_id":       result.RewardID,
		"points_spent":    result.PointsSpent,
		"updated_balance": result.UpdatedBalance,
	})
}
