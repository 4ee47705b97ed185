package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/readably/readably-backend/models"
)

// Streak is the derived consecutive-day reading view. It is computed on
// demand from session end timestamps and never persisted.
type Streak struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// ComputeStreak counts consecutive-day runs over a set of reading days.
// Days may arrive in any order and with duplicates; they are truncated to
// calendar days in today's location before counting. The current streak is
// the run containing the most recent day, but only when that day is today
// or yesterday; otherwise the streak is broken and Current is 0.
func ComputeStreak(days []time.Time, today time.Time) Streak {
	loc := today.Location()
	todayDay := truncateToDay(today, loc)

	seen := make(map[time.Time]struct{}, len(days))
	distinct := make([]time.Time, 0, len(days))
	for _, d := range days {
		day := truncateToDay(d, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		distinct = append(distinct, day)
	}

	if len(distinct) == 0 {
		return Streak{}
	}

	sort.Slice(distinct, func(i, j int) bool { return distinct[i].After(distinct[j]) })

	var out Streak
	run := 1
	for i := 0; i < len(distinct)-1; i++ {
		if dayDiff(distinct[i], distinct[i+1]) == 1 {
			run++
			continue
		}
		if run > out.Longest {
			out.Longest = run
		}
		run = 1
	}
	if run > out.Longest {
		out.Longest = run
	}

	// The trailing run counts as current only when it reaches today or
	// yesterday.
	mostRecent := distinct[0]
	if dayDiff(todayDay, mostRecent) <= 1 {
		current := 1
		for i := 0; i < len(distinct)-1; i++ {
			if dayDiff(distinct[i], distinct[i+1]) != 1 {
				break
			}
			current++
		}
		out.Current = current
	}

	return out
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayDiff returns the whole calendar days between two day-truncated times,
// robust against DST shifts by rounding the hour difference.
func dayDiff(later, earlier time.Time) int {
	return int(later.Sub(earlier).Round(24*time.Hour) / (24 * time.Hour))
}

// StreakService serves the parent-facing streak view.
type StreakService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewStreakService builds a StreakService computing day boundaries in loc.
func NewStreakService(db *gorm.DB, loc *time.Location) *StreakService {
	if loc == nil {
		loc = time.Local
	}
	return &StreakService{db: db, loc: loc, now: time.Now}
}

// ChildStreak verifies the parent-child link, then computes the child's
// streaks from the calendar days on which at least one of their sessions
// ended. Missing or inactive links yield ErrForbidden.
func (s *StreakService) ChildStreak(ctx context.Context, parentID, childID uint) (Streak, error) {
	var link models.ParentLink
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND child_id = ? AND is_active = ?", parentID, childID, true).
		First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Streak{}, ErrForbidden
		}
		return Streak{}, fmt.Errorf("load parent link: %w", err)
	}

	var endings []time.Time
	err = s.db.WithContext(ctx).Model(&models.ReadingSession{}).
		Where("user_id = ? AND ended_at IS NOT NULL", childID).
		Order("ended_at DESC").
		Pluck("ended_at", &endings).Error
	if err != nil {
		return Streak{}, fmt.Errorf("load session endings: %w", err)
	}

	return ComputeStreak(endings, s.now().In(s.loc)), nil
}
