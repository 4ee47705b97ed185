package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/readably/readably-backend/models"
)

// LedgerService is the points balance and unlock history. Its one hard
// guarantee: a balance decrement and its RewardUnlock row land in the same
// transaction, at most once per (user, reward), and the balance never goes
// negative under any interleaving.
type LedgerService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedgerService creates the ledger over db.
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db, now: time.Now}
}

// UnlockResult reports a successful spend.
type UnlockResult struct {
	RewardID       uint `json:"reward_id"`
	PointsSpent    int  `json:"points_spent"`
	UpdatedBalance int  `json:"updated_balance"`
}

// Unlock spends points on a reward. The whole check-and-write runs in one
// transaction: the decrement is a guarded UPDATE that only fires while the
// balance covers the cost, and the unique (user, reward) index rejects a
// concurrent duplicate insert, rolling the decrement back with it. Two
// simultaneous calls therefore end as exactly one success and one
// ErrAlreadyUnlocked (or ErrInsufficientPoints when another spend drained
// the balance first) — never two deductions.
func (l *LedgerService) Unlock(ctx context.Context, userID, rewardID uint) (UnlockResult, error) {
	var out UnlockResult
	now := l.now()

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reward models.Reward
		err := tx.Where("id = ? AND is_active = ?", rewardID, true).First(&reward).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load reward: %w", err)
		}

		if err := l.ensureBalanceTx(tx, userID, now); err != nil {
			return err
		}

		var existing int64
		err = tx.Model(&models.RewardUnlock{}).
			Where("user_id = ? AND reward_id = ?", userID, rewardID).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("check existing unlock: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyUnlocked
		}

		res := tx.Model(&models.UserPointsBalance{}).
			Where("user_id = ? AND available_points >= ?", userID, reward.CostPoints).
			UpdateColumns(map[string]interface{}{
				"available_points": gorm.Expr("available_points - ?", reward.CostPoints),
				"updated_at":       now,
			})
		if res.Error != nil {
			return fmt.Errorf("debit balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientPoints
		}

		unlock := models.RewardUnlock{
			UserID:      userID,
			RewardID:    rewardID,
			PointsSpent: reward.CostPoints,
			UnlockedAt:  now,
		}
		if err := tx.Create(&unlock).Error; err != nil {
			// Unique index backstop: a concurrent unlock won the race and
			// this transaction rolls back, restoring the points.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyUnlocked
			}
			return fmt.Errorf("record unlock: %w", err)
		}

		var balance models.UserPointsBalance
		if err := tx.Where("user_id = ?", userID).First(&balance).Error; err != nil {
			return fmt.Errorf("reload balance: %w", err)
		}

		out = UnlockResult{
			RewardID:       rewardID,
			PointsSpent:    reward.CostPoints,
			UpdatedBalance: balance.AvailablePoints,
		}
		return nil
	})
	if err != nil {
		return UnlockResult{}, err
	}
	return out, nil
}

// Grant credits points to a user in its own transaction.
func (l *LedgerService) Grant(ctx context.Context, userID uint, points int) error {
	if points <= 0 {
		return nil
	}
	now := l.now()
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.GrantTx(tx, userID, points, now)
	})
}

// GrantTx credits points inside a caller-owned transaction, so the credit
// commits or rolls back together with whatever earned it.
func (l *LedgerService) GrantTx(tx *gorm.DB, userID uint, points int, now time.Time) error {
	if points <= 0 {
		return nil
	}
	if err := l.ensureBalanceTx(tx, userID, now); err != nil {
		return err
	}
	err := tx.Model(&models.UserPointsBalance{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"available_points": gorm.Expr("available_points + ?", points),
			"lifetime_points":  gorm.Expr("lifetime_points + ?", points),
			"updated_at":       now,
		}).Error
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

// Balance returns the user's current balance, zero-valued when the user has
// never earned points.
func (l *LedgerService) Balance(ctx context.Context, userID uint) (models.UserPointsBalance, error) {
	var balance models.UserPointsBalance
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.UserPointsBalance{UserID: userID}, nil
		}
		return models.UserPointsBalance{}, fmt.Errorf("load balance: %w", err)
	}
	return balance, nil
}

// RewardWithStatus is a catalog entry annotated with the caller's unlock
// state.
type RewardWithStatus struct {
	models.Reward
	IsUnlocked bool `json:"is_unlocked"`
}

// RewardCatalog lists active rewards cheapest-first, marked with whether the
// user already unlocked each, plus the user's spendable points.
func (l *LedgerService) RewardCatalog(ctx context.Context, userID uint, rewardType string) ([]RewardWithStatus, int, error) {
	q := l.db.WithContext(ctx).Where("is_active = ?", true)
	if rewardType != "" {
		q = q.Where("reward_type = ?", rewardType)
	}

	var rewards []models.Reward
	if err := q.Order("cost_points ASC").Find(&rewards).Error; err != nil {
		return nil, 0, fmt.Errorf("load rewards: %w", err)
	}

	var unlockedIDs []uint
	err := l.db.WithContext(ctx).Model(&models.RewardUnlock{}).
		Where("user_id = ?", userID).
		Pluck("reward_id", &unlockedIDs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("load unlocks: %w", err)
	}
	unlocked := make(map[uint]struct{}, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = struct{}{}
	}

	out := make([]RewardWithStatus, 0, len(rewards))
	for _, r := range rewards {
		_, ok := unlocked[r.ID]
		out = append(out, RewardWithStatus{Reward: r, IsUnlocked: ok})
	}

	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return out, balance.AvailablePoints, nil
}

// ensureBalanceTx creates the user's balance row on first contact. A
// concurrent create losing the unique-index race falls through to the
// existing row.
func (l *LedgerService) ensureBalanceTx(tx *gorm.DB, userID uint, now time.Time) error {
	var balance models.UserPointsBalance
	err := tx.Where("user_id = ?", userID).First(&balance).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load balance: %w", err)
	}
	balance = models.UserPointsBalance{UserID: userID, UpdatedAt: now}
	if err := tx.Create(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("create balance: %w", err)
	}
	return nil
}
