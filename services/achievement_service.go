package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/readably/readably-backend/models"
)

// AchievementService is the read side joining the achievement catalog with
// per-user completion state. It never mutates; state is fed by the session
// lifecycle and external triggers.
type AchievementService struct {
	db *gorm.DB
}

// NewAchievementService creates the aggregator over db.
func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{db: db}
}

// AchievementProgress is the small polymorphic progress payload: nil for
// boolean-style achievements, a current/target pair for counter-style ones.
type AchievementProgress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// AchievementStatus is one catalog entry annotated with the user's state.
type AchievementStatus struct {
	models.Achievement
	IsCompleted bool                 `json:"is_completed"`
	UnlockedAt  *time.Time           `json:"unlocked_at"`
	Progress    *AchievementProgress `json:"progress"`
}

// AchievementStats summarizes completion across the active catalog.
type AchievementStats struct {
	UnlockedCount        int     `json:"unlocked_count"`
	TotalAchievements    int     `json:"total_achievements"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// UserAchievements lists every active achievement with the caller's state
// attached. A user with no row for a definition is simply "not started":
// isCompleted false, no progress — never an error.
func (a *AchievementService) UserAchievements(ctx context.Context, userID uint) ([]AchievementStatus, AchievementStats, error) {
	var definitions []models.Achievement
	err := a.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&definitions).Error
	if err != nil {
		return nil, AchievementStats{}, fmt.Errorf("load achievements: %w", err)
	}

	var rows []models.UserAchievement
	err = a.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error
	if err != nil {
		return nil, AchievementStats{}, fmt.Errorf("load user achievements: %w", err)
	}
	byAchievement := make(map[uint]models.UserAchievement, len(rows))
	for _, row := range rows {
		byAchievement[row.AchievementID] = row
	}

	out := make([]AchievementStatus, 0, len(definitions))
	unlocked := 0
	for _, def := range definitions {
		status := AchievementStatus{Achievement: def}
		if row, ok := byAchievement[def.ID]; ok {
			status.IsCompleted = row.IsCompleted
			status.UnlockedAt = row.UnlockedAt
			if row.ProgressCurrent != nil && row.ProgressTarget != nil {
				status.Progress = &AchievementProgress{
					Current: *row.ProgressCurrent,
					Target:  *row.ProgressTarget,
				}
			}
		}
		if status.IsCompleted {
			unlocked++
		}
		out = append(out, status)
	}

	stats := AchievementStats{
		UnlockedCount:     unlocked,
		TotalAchievements: len(definitions),
	}
	if len(definitions) > 0 {
		pct := float64(unlocked) / float64(len(definitions)) * 100
		stats.CompletionPercentage = math.Round(pct*100) / 100
	}
	return out, stats, nil
}
