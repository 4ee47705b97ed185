package models

import "time"

// ReadingMaterial is the catalog entry sessions are opened against. The
// text itself is delivered by the content service; the core only needs
// existence and sizing metadata.
type ReadingMaterial struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Author       string    `gorm:"size:128" json:"author"`
	ReadingLevel string    `gorm:"size:32;index" json:"reading_level"`
	WordCount    int       `json:"word_count"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
