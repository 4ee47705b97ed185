package models

import "time"

// UserProgress is the durable, material-scoped progress record. It outlives
// individual sessions: one row per (user, material), created lazily on the
// first session start and updated by every progress event.
//
// ReadingTimeSeconds accumulates per-update deltas, never a re-applied
// "now minus session start" total; see SessionService.RecordProgress.
type UserProgress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"index:idx_progress_user_material,unique;not null" json:"user_id"`
	MaterialID         uint       `gorm:"index:idx_progress_user_material,unique;not null" json:"material_id"`
	LastPosition       int        `gorm:"default:0" json:"last_position"`
	ProgressPercentage float64    `gorm:"default:0" json:"progress_percentage"`
	ReadingTimeSeconds int64      `gorm:"default:0" json:"reading_time_seconds"`
	WordsClickedCount  int        `gorm:"default:0" json:"words_clicked_count"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
