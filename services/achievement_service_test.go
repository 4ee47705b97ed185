package services

import (
	"context"
	"testing"
	"time"

	"github.com/readably/readably-backend/models"
)

func seedAchievements(t *testing.T, svc *AchievementService) (models.Achievement, models.Achievement) {
	t.Helper()
	bookworm := models.Achievement{
		Name: "Bookworm", CriteriaType: "materials_completed", CriteriaTarget: 10,
		PointsAwarded: 50, IsActive: true,
	}
	firstSteps := models.Achievement{
		Name: "First Steps", CriteriaType: "first_session", IsActive: true,
	}
	retired := models.Achievement{Name: "Retired Badge", IsActive: false}
	for _, a := range []*models.Achievement{&bookworm, &firstSteps, &retired} {
		if err := svc.db.Create(a).Error; err != nil {
			t.Fatalf("seed achievement: %v", err)
		}
	}
	return bookworm, firstSteps
}

func TestUserAchievementsMissingRowMeansNotStarted(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)
	seedAchievements(t, svc)

	list, stats, err := svc.UserAchievements(context.Background(), 9)
	if err != nil {
		t.Fatalf("UserAchievements: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("entries = %d, want 2 active definitions", len(list))
	}
	for _, entry := range list {
		if entry.IsCompleted {
			t.Fatalf("entry %q completed without a user row", entry.Name)
		}
		if entry.Progress != nil {
			t.Fatalf("entry %q has progress without a user row", entry.Name)
		}
	}
	if stats.UnlockedCount != 0 || stats.TotalAchievements != 2 {
		t.Fatalf("stats = %+v, want 0/2", stats)
	}
}

func TestUserAchievementsJoinsStateAndStats(t *testing.T) {
	db := openTestDB(t)
	svc := NewAchievementService(db)
	bookworm, firstSteps := seedAchievements(t, svc)

	unlockedAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	current, target := 4, 10
	rows := []models.UserAchievement{
		{UserID: 9, AchievementID: firstSteps.ID, IsCompleted: true, UnlockedAt: &unlockedAt},
		{UserID: 9, AchievementID: bookworm.ID, ProgressCurrent: &current, ProgressTarget: &target},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed user achievement: %v", err)
		}
	}

	list, stats, err := svc.UserAchievements(context.Background(), 9)
	if err != nil {
		t.Fatalf("UserAchievements: %v", err)
	}

	// ordered by name: Bookworm then First Steps
	if list[0].Name != "Bookworm" || list[1].Name != "First Steps" {
		t.Fatalf("unexpected order: %q, %q", list[0].Name, list[1].Name)
	}
	if list[0].Progress == nil || list[0].Progress.Current != 4 || list[0].Progress.Target != 10 {
		t.Fatalf("bookworm progress = %+v, want 4/10", list[0].Progress)
	}
	if list[0].IsCompleted {
		t.Fatalf("bookworm should be in progress, not completed")
	}
	if !list[1].IsCompleted || list[1].UnlockedAt == nil {
		t.Fatalf("first steps should be completed: %+v", list[1])
	}

	if stats.UnlockedCount != 1 || stats.TotalAchievements != 2 || stats.CompletionPercentage != 50 {
		t.Fatalf("stats = %+v, want 1/2 = 50%%", stats)
	}
}
