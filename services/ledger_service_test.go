package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/readably/readably-backend/models"
)

func TestUnlockSpendsPointsAndRecordsLedgerEntry(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	reward := seedReward(t, db, 40, true)
	if err := ledger.Grant(ctx, 7, 100); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	res, err := ledger.Unlock(ctx, 7, reward.ID)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if res.UpdatedBalance != 60 {
		t.Fatalf("balance = %d, want 60", res.UpdatedBalance)
	}
	if res.PointsSpent != 40 {
		t.Fatalf("spent = %d, want 40", res.PointsSpent)
	}

	var unlocks []models.RewardUnlock
	if err := db.Where("user_id = ?", 7).Find(&unlocks).Error; err != nil {
		t.Fatalf("load unlocks: %v", err)
	}
	if len(unlocks) != 1 || unlocks[0].RewardID != reward.ID || unlocks[0].PointsSpent != 40 {
		t.Fatalf("unexpected ledger entries: %+v", unlocks)
	}
}

func TestUnlockUnknownOrInactiveReward(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	inactive := seedReward(t, db, 10, false)

	if _, err := ledger.Unlock(ctx, 7, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown reward", err)
	}
	if _, err := ledger.Unlock(ctx, 7, inactive.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for inactive reward", err)
	}
}

func TestUnlockInsufficientPoints(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	reward := seedReward(t, db, 50, true)
	if err := ledger.Grant(ctx, 7, 30); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if _, err := ledger.Unlock(ctx, 7, reward.ID); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}

	// The failed attempt must leave no partial state behind.
	balance, err := ledger.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 30 {
		t.Fatalf("balance = %d, want untouched 30", balance.AvailablePoints)
	}
	var count int64
	if err := db.Model(&models.RewardUnlock{}).Where("user_id = ?", 7).Count(&count).Error; err != nil {
		t.Fatalf("count unlocks: %v", err)
	}
	if count != 0 {
		t.Fatalf("unlock rows = %d, want 0", count)
	}
}

func TestUnlockTwiceReturnsAlreadyUnlocked(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	reward := seedReward(t, db, 20, true)
	if err := ledger.Grant(ctx, 7, 100); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if _, err := ledger.Unlock(ctx, 7, reward.ID); err != nil {
		t.Fatalf("first Unlock: %v", err)
	}
	if _, err := ledger.Unlock(ctx, 7, reward.ID); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("err = %v, want ErrAlreadyUnlocked", err)
	}

	balance, err := ledger.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 80 {
		t.Fatalf("balance = %d, want a single 20 point deduction", balance.AvailablePoints)
	}
}

func TestConcurrentUnlockExactlyOneSuccess(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	reward := seedReward(t, db, 40, true)
	if err := ledger.Grant(ctx, 7, 1000); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Unlock(ctx, 7, reward.ID)
		}(i)
	}
	wg.Wait()

	successes, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyUnlocked):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	if duplicates != attempts-1 {
		t.Fatalf("duplicates = %d, want %d", duplicates, attempts-1)
	}

	balance, err := ledger.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 1000-40 {
		t.Fatalf("balance = %d, want exactly one deduction (960)", balance.AvailablePoints)
	}
}

func TestUnlockNeverDrivesBalanceNegative(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	first := seedReward(t, db, 20, true)
	second := models.Reward{Name: "Ocean Theme", RewardType: "theme", CostPoints: 20, IsActive: true}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed second reward: %v", err)
	}
	if err := ledger.Grant(ctx, 7, 30); err != nil {
		t.Fatalf("Grant: %v", err)
	}

	if _, err := ledger.Unlock(ctx, 7, first.ID); err != nil {
		t.Fatalf("first Unlock: %v", err)
	}
	if _, err := ledger.Unlock(ctx, 7, second.ID); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}

	balance, err := ledger.Balance(ctx, 7)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 10 {
		t.Fatalf("balance = %d, want 10", balance.AvailablePoints)
	}
	if balance.AvailablePoints < 0 {
		t.Fatalf("balance went negative: %d", balance.AvailablePoints)
	}
}

func TestRewardCatalogMarksUnlocked(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	cheap := seedReward(t, db, 10, true)
	pricey := models.Reward{Name: "Golden Bookmark", RewardType: "badge", CostPoints: 500, IsActive: true}
	if err := db.Create(&pricey).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}
	hidden := models.Reward{Name: "Retired", RewardType: "badge", CostPoints: 5, IsActive: false}
	if err := db.Create(&hidden).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	if err := ledger.Grant(ctx, 7, 50); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := ledger.Unlock(ctx, 7, cheap.ID); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	rewards, points, err := ledger.RewardCatalog(ctx, 7, "")
	if err != nil {
		t.Fatalf("RewardCatalog: %v", err)
	}
	if points != 40 {
		t.Fatalf("points = %d, want 40", points)
	}
	if len(rewards) != 2 {
		t.Fatalf("rewards = %d, want 2 active entries", len(rewards))
	}
	// cheapest first
	if rewards[0].ID != cheap.ID || !rewards[0].IsUnlocked {
		t.Fatalf("first entry wrong: %+v", rewards[0])
	}
	if rewards[1].ID != pricey.ID || rewards[1].IsUnlocked {
		t.Fatalf("second entry wrong: %+v", rewards[1])
	}
}

func TestGrantCreatesBalanceOnFirstContact(t *testing.T) {
	db := openTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	balance, err := ledger.Balance(ctx, 42)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 0 {
		t.Fatalf("fresh balance = %d, want 0", balance.AvailablePoints)
	}

	if err := ledger.Grant(ctx, 42, 15); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	balance, err = ledger.Balance(ctx, 42)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.AvailablePoints != 15 || balance.LifetimePoints != 15 {
		t.Fatalf("balance = %+v, want 15/15", balance)
	}
}
