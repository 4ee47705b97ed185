package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values recognized by the API. Identity itself is issued by the
// external auth service; this core only scopes data by it.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
)

// User is the minimal identity record the reading core scopes data by.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	DisplayName string         `gorm:"size:128" json:"display_name"`
	Role        string         `gorm:"size:16;not null;default:student" json:"role"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// ParentLink associates a parent account with a child account. Only active
// links grant the parent read access to the child's reading data.
type ParentLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ParentID  uint      `gorm:"index:idx_parent_child,unique;not null" json:"parent_id"`
	ChildID   uint      `gorm:"index:idx_parent_child,unique;not null" json:"child_id"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
