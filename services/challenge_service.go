package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/readably/readably-backend/models"
)

// ChallengeService is the read side for time-boxed challenges: the open
// catalog joined with the caller's progress rows.
type ChallengeService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewChallengeService creates the reader over db.
func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{db: db, now: time.Now}
}

// ChallengeFilter narrows the active-challenge listing. Zero values mean
// "no filter".
type ChallengeFilter struct {
	Type       string
	StartAfter *time.Time
	EndBefore  *time.Time
}

// ChallengeStatus is one open challenge annotated with the user's progress.
// Progress and CompletedAt stay nil when the user has not started it.
type ChallengeStatus struct {
	models.Challenge
	Progress    *int       `json:"progress"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ActiveChallenges lists challenges whose window contains now, ordered by
// soonest-ending first, each annotated with the caller's progress. A user
// with no row for a challenge has simply not started it.
func (c *ChallengeService) ActiveChallenges(ctx context.Context, userID uint, filter ChallengeFilter) ([]ChallengeStatus, error) {
	now := c.now()
	q := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date >= ?", now, now)
	if filter.Type != "" {
		q = q.Where("challenge_type = ?", filter.Type)
	}
	if filter.StartAfter != nil {
		q = q.Where("start_date >= ?", *filter.StartAfter)
	}
	if filter.EndBefore != nil {
		q = q.Where("end_date <= ?", *filter.EndBefore)
	}

	var challenges []models.Challenge
	if err := q.Order("end_date ASC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("load challenges: %w", err)
	}
	if len(challenges) == 0 {
		return []ChallengeStatus{}, nil
	}

	ids := make([]uint, 0, len(challenges))
	for _, ch := range challenges {
		ids = append(ids, ch.ID)
	}
	var rows []models.UserChallenge
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id IN ?", userID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load user challenges: %w", err)
	}
	byChallenge := make(map[uint]models.UserChallenge, len(rows))
	for _, row := range rows {
		byChallenge[row.ChallengeID] = row
	}

	out := make([]ChallengeStatus, 0, len(challenges))
	for _, ch := range challenges {
		status := ChallengeStatus{Challenge: ch}
		if row, ok := byChallenge[ch.ID]; ok {
			progress := row.Progress
			status.Progress = &progress
			status.CompletedAt = row.CompletedAt
		}
		out = append(out, status)
	}
	return out, nil
}
