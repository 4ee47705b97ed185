package models

import "time"

// Achievement is a catalog definition. CriteriaTarget is the threshold a
// counter-style achievement completes at; boolean-style achievements leave
// it at zero.
type Achievement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	Description    string    `gorm:"size:512" json:"description"`
	IconName       string    `gorm:"size:64" json:"icon_name"`
	CriteriaType   string    `gorm:"size:32" json:"criteria_type"`
	CriteriaTarget int       `json:"criteria_target"`
	PointsAwarded  int       `json:"points_awarded"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserAchievement tracks one user's state against one achievement. A missing
// row means "not started" and is never an error on the read side.
type UserAchievement struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"index:idx_user_achievement,unique;not null" json:"user_id"`
	AchievementID   uint       `gorm:"index:idx_user_achievement,unique;not null" json:"achievement_id"`
	IsCompleted     bool       `gorm:"default:false" json:"is_completed"`
	UnlockedAt      *time.Time `json:"unlocked_at"`
	ProgressCurrent *int       `json:"progress_current"`
	ProgressTarget  *int       `json:"progress_target"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
