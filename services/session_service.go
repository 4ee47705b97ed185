package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/readably/readably-backend/models"
)

// SessionService owns the reading session lifecycle: start, progress
// accrual, and completion. All state lives in the database; requests are
// stateless and any instance can serve any session.
type SessionService struct {
	db     *gorm.DB
	ledger *LedgerService
	// points credited to the reader when a material is completed
	completionPoints int
	now              func() time.Time
}

// NewSessionService wires the session lifecycle over db. completionPoints
// are granted through ledger on first completion of a material.
func NewSessionService(db *gorm.DB, ledger *LedgerService, completionPoints int) *SessionService {
	return &SessionService{
		db:               db,
		ledger:           ledger,
		completionPoints: completionPoints,
		now:              time.Now,
	}
}

// StartResult reports the session and progress rows a reader should use.
// Resumed is true when an already-active session was reused.
type StartResult struct {
	SessionID  uint `json:"session_id"`
	ProgressID uint `json:"progress_id"`
	Resumed    bool `json:"resumed"`
}

// ProgressUpdate carries one progress event. Nil pointers mean "no change".
// WordsClicked is a delta, not a running total.
type ProgressUpdate struct {
	LastPosition       *int
	ProgressPercentage *float64
	WordsClicked       int
}

// Start opens (or resumes) a reading session for userID on materialID.
// Session creation and the progress-row upsert happen in one transaction:
// both land or neither does. When an active session already exists for the
// pair it is reused, so repeated start calls are safe and never leave two
// active sessions behind.
func (s *SessionService) Start(ctx context.Context, userID, materialID uint, clientRef string) (StartResult, error) {
	var out StartResult
	now := s.now()

	var material models.ReadingMaterial
	if err := s.db.WithContext(ctx).Select("id").First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StartResult{}, ErrNotFound
		}
		return StartResult{}, fmt.Errorf("load material: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The upsert must be the transaction's first statement: the write
		// lock it takes on the pair's progress row serializes concurrent
		// starts, and under REPEATABLE READ the reads below only establish
		// their snapshot after a racing start has committed. Reading first
		// would pin a snapshot that cannot see the peer's session.
		seed := models.UserProgress{
			UserID:     userID,
			MaterialID: materialID,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "material_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": now}),
		}).Create(&seed).Error
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		var progress models.UserProgress
		err = tx.Where("user_id = ? AND material_id = ?", userID, materialID).First(&progress).Error
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		out.ProgressID = progress.ID

		var session models.ReadingSession
		err = tx.Where("user_id = ? AND material_id = ? AND completed = ?", userID, materialID, false).
			Order("started_at DESC").
			First(&session).Error
		switch {
		case err == nil:
			out.Resumed = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			session = models.ReadingSession{
				UserID:     userID,
				MaterialID: materialID,
				ClientRef:  clientRef,
				StartedAt:  now,
			}
			if err := tx.Create(&session).Error; err != nil {
				return fmt.Errorf("create session: %w", err)
			}
		default:
			return fmt.Errorf("load active session: %w", err)
		}
		out.SessionID = session.ID

		return nil
	})
	if err != nil {
		return StartResult{}, err
	}
	return out, nil
}

// RecordProgress applies one progress event to the caller's active session.
// Reading time is accrued as the delta between the freshly computed elapsed
// duration and the duration already stored on the session row; re-applying
// the full elapsed value on every call would double count, which is exactly
// the failure mode this guards against. Elapsed time never decreases across
// calls within one session.
//
// Referencing a completed or nonexistent session returns ErrNotFound; a
// session owned by someone else returns ErrForbidden.
func (s *SessionService) RecordProgress(ctx context.Context, userID, sessionID uint, in ProgressUpdate) error {
	now := s.now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.loadOwnedSession(tx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return ErrNotFound
		}

		elapsed := int64(now.Sub(session.StartedAt).Seconds())
		if elapsed < session.DurationSeconds {
			elapsed = session.DurationSeconds
		}
		delta := elapsed - session.DurationSeconds

		updates := map[string]interface{}{
			"duration_seconds": elapsed,
			"updated_at":       now,
		}
		if in.WordsClicked > 0 {
			updates["words_clicked"] = gorm.Expr("words_clicked + ?", in.WordsClicked)
		}
		if err := tx.Model(&session).UpdateColumns(updates).Error; err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		// Keep the in-memory row in sync so a finalize below computes a
		// zero remaining delta instead of re-applying this one.
		session.DurationSeconds = elapsed

		var progress models.UserProgress
		err = tx.Where("user_id = ? AND material_id = ?", userID, session.MaterialID).
			First(&progress).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load progress: %w", err)
			}
			// Progress rows are created on start; recreate if one went missing.
			progress = models.UserProgress{
				UserID:     userID,
				MaterialID: session.MaterialID,
				StartedAt:  session.StartedAt,
			}
			if err := tx.Create(&progress).Error; err != nil {
				return fmt.Errorf("recreate progress: %w", err)
			}
		}

		progressUpdates := map[string]interface{}{
			"reading_time_seconds": gorm.Expr("reading_time_seconds + ?", delta),
			"updated_at":           now,
		}
		if in.WordsClicked > 0 {
			progressUpdates["words_clicked_count"] = gorm.Expr("words_clicked_count + ?", in.WordsClicked)
		}
		if in.LastPosition != nil {
			progressUpdates["last_position"] = *in.LastPosition
		}

		reached100 := false
		if in.ProgressPercentage != nil {
			pct := clampPercentage(*in.ProgressPercentage)
			// Percentage is monotonic within a session; stale or out-of-order
			// updates never move it backwards.
			if pct > progress.ProgressPercentage {
				progressUpdates["progress_percentage"] = pct
			}
			reached100 = pct >= 100
		}

		if err := tx.Model(&progress).UpdateColumns(progressUpdates).Error; err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		if reached100 {
			return s.finalize(tx, &session, now)
		}
		return nil
	})
}

// Complete closes the caller's session. Completing an already-completed
// session is a success no-op, so client teardown retries are harmless.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID uint) error {
	now := s.now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.loadOwnedSession(tx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			return nil
		}
		return s.finalize(tx, &session, now)
	})
}

// finalize marks the session completed and settles the progress row:
// percentage pinned to 100, completedAt set exactly once, remaining reading
// time delta flushed, completion points credited.
func (s *SessionService) finalize(tx *gorm.DB, session *models.ReadingSession, now time.Time) error {
	elapsed := int64(now.Sub(session.StartedAt).Seconds())
	if elapsed < session.DurationSeconds {
		elapsed = session.DurationSeconds
	}
	delta := elapsed - session.DurationSeconds

	err := tx.Model(session).UpdateColumns(map[string]interface{}{
		"completed":        true,
		"ended_at":         now,
		"duration_seconds": elapsed,
		"updated_at":       now,
	}).Error
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}

	var progress models.UserProgress
	err = tx.Where("user_id = ? AND material_id = ?", session.UserID, session.MaterialID).
		First(&progress).Error
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	updates := map[string]interface{}{
		"progress_percentage":  float64(100),
		"reading_time_seconds": gorm.Expr("reading_time_seconds + ?", delta),
		"updated_at":           now,
	}
	firstCompletion := progress.CompletedAt == nil
	if firstCompletion {
		updates["completed_at"] = now
	}
	if err := tx.Model(&progress).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("finalize progress: %w", err)
	}

	// First completion of a material earns points; later re-reads do not.
	if firstCompletion && s.completionPoints > 0 && s.ledger != nil {
		if err := s.ledger.GrantTx(tx, session.UserID, s.completionPoints, now); err != nil {
			return fmt.Errorf("grant completion points: %w", err)
		}
	}
	return nil
}

// Progress returns the durable progress row for a material, or a zero-value
// row when the user has not opened it yet.
func (s *SessionService) Progress(ctx context.Context, userID, materialID uint) (models.UserProgress, error) {
	var progress models.UserProgress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.UserProgress{UserID: userID, MaterialID: materialID}, nil
		}
		return models.UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	return progress, nil
}

func (s *SessionService) loadOwnedSession(tx *gorm.DB, userID, sessionID uint) (models.ReadingSession, error) {
	var session models.ReadingSession
	if err := tx.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session, ErrNotFound
		}
		return session, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != userID {
		return session, ErrForbidden
	}
	return session, nil
}

func clampPercentage(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
