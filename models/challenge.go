package models

import "time"

// Challenge is a time-boxed catalog entry: while active and inside its
// start/end window it is open to every reader.
type Challenge struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	Description   string    `gorm:"size:512" json:"description"`
	ChallengeType string    `gorm:"size:32;index" json:"challenge_type"`
	TargetValue   int       `json:"target_value"`
	PointsAwarded int       `json:"points_awarded"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `gorm:"index" json:"end_date"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserChallenge tracks one user's progress against one challenge. A missing
// row means the user has not started it.
type UserChallenge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index:idx_user_challenge,unique;not null" json:"user_id"`
	ChallengeID uint       `gorm:"index:idx_user_challenge,unique;not null" json:"challenge_id"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
