package models

import "time"

// ReadingSession is one continuous reading attempt by one user on one
// material. At most one active (completed = false) session exists per
// (user, material) pair; SessionService.Start reuses an existing active
// session instead of inserting a duplicate.
type ReadingSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"index:idx_session_user_material;not null" json:"user_id"`
	MaterialID      uint       `gorm:"index:idx_session_user_material;not null" json:"material_id"`
	ClientRef       string     `gorm:"size:36" json:"client_ref"`
	StartedAt       time.Time  `gorm:"not null" json:"started_at"`
	EndedAt         *time.Time `gorm:"index" json:"ended_at"`
	DurationSeconds int64      `gorm:"default:0" json:"duration_seconds"`
	WordsClicked    int        `gorm:"default:0" json:"words_clicked"`
	Completed       bool       `gorm:"default:false;index" json:"completed"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
