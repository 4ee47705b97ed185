package services

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readably/readably-backend/models"
)

// openTestDB gives each test an isolated on-disk sqlite database with the
// full schema. A single connection keeps sqlite happy under the concurrent
// ledger tests; correctness must come from transactional state, not from
// lucky scheduling.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "readably_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.ParentLink{},
		&models.ReadingMaterial{},
		&models.ReadingSession{},
		&models.UserProgress{},
		&models.Reward{},
		&models.RewardUnlock{},
		&models.UserPointsBalance{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Challenge{},
		&models.UserChallenge{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedMaterial(t *testing.T, db *gorm.DB) models.ReadingMaterial {
	t.Helper()
	m := models.ReadingMaterial{Title: "The Lighthouse Keeper", ReadingLevel: "grade-3", WordCount: 1200, IsActive: true}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed material: %v", err)
	}
	return m
}

func seedReward(t *testing.T, db *gorm.DB, cost int, active bool) models.Reward {
	t.Helper()
	r := models.Reward{Name: "Space Avatar", RewardType: "avatar", CostPoints: cost, IsActive: active}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}
	return r
}

// fakeClock is a manually advanced time source for deterministic duration
// arithmetic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
