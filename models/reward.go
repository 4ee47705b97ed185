package models

import "time"

// Reward is a catalog entry students spend points on.
type Reward struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	RewardType  string    `gorm:"size:32;index" json:"reward_type"`
	CostPoints  int       `gorm:"not null" json:"cost_points"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RewardUnlock is an append-only ledger entry recording a spend. The unique
// (user, reward) index is the database-level backstop guaranteeing at most
// one unlock per user per reward regardless of request interleaving.
type RewardUnlock struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:idx_unlock_user_reward,unique;not null" json:"user_id"`
	RewardID    uint      `gorm:"index:idx_unlock_user_reward,unique;not null" json:"reward_id"`
	PointsSpent int       `gorm:"not null" json:"points_spent"`
	UnlockedAt  time.Time `gorm:"not null" json:"unlocked_at"`
}

// UserPointsBalance is the current spendable balance projection. Every
// decrement is paired with exactly one RewardUnlock row in the same
// transaction, and AvailablePoints never goes negative.
type UserPointsBalance struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AvailablePoints int       `gorm:"default:0" json:"available_points"`
	LifetimePoints  int       `gorm:"default:0" json:"lifetime_points"`
	UpdatedAt       time.Time `json:"updated_at"`
}
