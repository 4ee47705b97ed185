package services

import (
	"context"
	"testing"
	"time"

	"github.com/readably/readably-backend/models"
)

func day(today time.Time, daysAgo int) time.Time {
	return today.AddDate(0, 0, -daysAgo)
}

func TestComputeStreakTrailingRun(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	days := []time.Time{day(today, 0), day(today, 1), day(today, 2), day(today, 4)}

	got := ComputeStreak(days, today)
	if got.Current != 3 {
		t.Fatalf("current = %d, want 3", got.Current)
	}
	if got.Longest != 3 {
		t.Fatalf("longest = %d, want 3", got.Longest)
	}
}

func TestComputeStreakBrokenRecency(t *testing.T) {
	today := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	days := []time.Time{day(today, 2), day(today, 3)}

	got := ComputeStreak(days, today)
	if got.Current != 0 {
		t.Fatalf("current = %d, want 0 when most recent day is before yesterday", got.Current)
	}
	if got.Longest != 2 {
		t.Fatalf("longest = %d, want 2", got.Longest)
	}
}

func TestComputeStreakEmpty(t *testing.T) {
	got := ComputeStreak(nil, time.Now())
	if got.Current != 0 || got.Longest != 0 {
		t.Fatalf("got %+v, want zeroes", got)
	}
}

func TestComputeStreakDeduplicatesSameDay(t *testing.T) {
	today := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 13, 21, 0, 0, 0, time.UTC)

	once := ComputeStreak([]time.Time{morning, day(today, 2)}, today)
	twice := ComputeStreak([]time.Time{morning, evening, day(today, 2)}, today)
	if once != twice {
		t.Fatalf("dedup mismatch: once=%+v twice=%+v", once, twice)
	}
	if twice.Current != 2 {
		t.Fatalf("current = %d, want 2 (yesterday + day before)", twice.Current)
	}
}

func TestComputeStreakYesterdayCountsAsCurrent(t *testing.T) {
	today := time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
	days := []time.Time{day(today, 1), day(today, 2), day(today, 3)}

	got := ComputeStreak(days, today)
	if got.Current != 3 {
		t.Fatalf("current = %d, want 3 when run ends yesterday", got.Current)
	}
}

func TestComputeStreakLongestInHistory(t *testing.T) {
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	// current run of 2, older run of 5
	days := []time.Time{
		day(today, 0), day(today, 1),
		day(today, 10), day(today, 11), day(today, 12), day(today, 13), day(today, 14),
	}

	got := ComputeStreak(days, today)
	if got.Current != 2 {
		t.Fatalf("current = %d, want 2", got.Current)
	}
	if got.Longest != 5 {
		t.Fatalf("longest = %d, want 5", got.Longest)
	}
}

func TestChildStreakRequiresActiveLink(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db, time.UTC)

	if _, err := svc.ChildStreak(context.Background(), 1, 2); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden without a link", err)
	}

	if err := db.Create(&models.ParentLink{ParentID: 1, ChildID: 2, IsActive: false}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}
	if _, err := svc.ChildStreak(context.Background(), 1, 2); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden for inactive link", err)
	}
}

func TestChildStreakFromSessionEndings(t *testing.T) {
	db := openTestDB(t)
	svc := NewStreakService(db, time.UTC)
	clock := newFakeClock()
	svc.now = clock.Now

	if err := db.Create(&models.ParentLink{ParentID: 1, ChildID: 2, IsActive: true}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	today := clock.Now()
	for _, daysAgo := range []int{0, 1, 2, 4} {
		ended := today.AddDate(0, 0, -daysAgo)
		s := models.ReadingSession{
			UserID: 2, MaterialID: 1,
			StartedAt: ended.Add(-10 * time.Minute),
			EndedAt:   &ended,
			Completed: true,
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
	// An unfinished session must not contribute a reading day.
	open := models.ReadingSession{UserID: 2, MaterialID: 1, StartedAt: today.AddDate(0, 0, -6)}
	if err := db.Create(&open).Error; err != nil {
		t.Fatalf("seed open session: %v", err)
	}

	got, err := svc.ChildStreak(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ChildStreak: %v", err)
	}
	if got.Current != 3 || got.Longest != 3 {
		t.Fatalf("got %+v, want current=3 longest=3", got)
	}
}
