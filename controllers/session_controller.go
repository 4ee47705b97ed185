package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// SessionController exposes the reading session lifecycle over HTTP.
type SessionController struct {
	sessions *services.SessionService
}

// NewSessionController creates a new controller instance.
func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// StartSession opens or resumes a reading session on a material.
func (s *SessionController) StartSession(ctx *gin.Context) {
	var req struct {
		MaterialID uint   `json:"material_id" binding:"required"`
		ClientRef  string `json:"client_ref"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	clientRef := req.ClientRef
	if clientRef == "" {
		clientRef = uuid.NewString()
	} else if _, err := uuid.Parse(clientRef); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "client_ref must be a UUID")
		return
	}

	result, err := s.sessions.Start(ctx.Request.Context(), userID, req.MaterialID, clientRef)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "reading material not found")
			return
		}
		utils.Sugar.Errorf("start session user=%d material=%d: %v", userID, req.MaterialID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to start reading session")
		return
	}

	if result.Resumed {
		utils.Sugar.Debugf("resumed session %d for user=%d material=%d", result.SessionID, userID, req.MaterialID)
	}
	utils.Success(ctx, result)
}

// RecordProgress applies one progress event to an active session. Clients
// coalesce bursts of events on their side; the server stays correct at any
// call frequency, so a retry after a network hiccup is harmless.
func (s *SessionController) RecordProgress(ctx *gin.Context) {
	var req struct {
		SessionID          uint     `json:"session_id" binding:"required"`
		LastPosition       *int     `json:"last_position"`
		ProgressPercentage *float64 `json:"progress_percentage"`
		WordsClicked       int      `json:"words_clicked"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	if req.WordsClicked < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40023, "words_clicked cannot be negative")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	err := s.sessions.RecordProgress(ctx.Request.Context(), userID, req.SessionID, services.ProgressUpdate{
		LastPosition:       req.LastPosition,
		ProgressPercentage: req.ProgressPercentage,
		WordsClicked:       req.WordsClicked,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40421, "active reading session not found")
		case errors.Is(err, services.ErrForbidden):
			utils.Error(ctx, http.StatusForbidden, 40320, "session belongs to another user")
		default:
			utils.Sugar.Errorf("record progress user=%d session=%d: %v", userID, req.SessionID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to record progress")
		}
		return
	}

	utils.Success(ctx, gin.H{"message": "progress recorded"})
}

// CompleteSession closes a session. Idempotent: completing twice succeeds.
func (s *SessionController) CompleteSession(ctx *gin.Context) {
	var req struct {
		SessionID uint `json:"session_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	err := s.sessions.Complete(ctx.Request.Context(), userID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40422, "reading session not found")
		case errors.Is(err, services.ErrForbidden):
			utils.Error(ctx, http.StatusForbidden, 40321, "session belongs to another user")
		default:
			utils.Sugar.Errorf("complete session user=%d session=%d: %v", userID, req.SessionID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to complete session")
		}
		return
	}

	// Completion may have granted points; stale catalog entries would show
	// the old balance.
	utils.InvalidateByPrefix("cache:rewards:user:" + strconv.Itoa(int(userID)))

	utils.Success(ctx, gin.H{"message": "session completed"})
}

// GetProgress returns the durable progress for one material.
func (s *SessionController) GetProgress(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	materialID, err := strconv.ParseUint(ctx.Query("material_id"), 10, 32)
	if err != nil || materialID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40025, "material_id is required")
		return
	}

	progress, err := s.sessions.Progress(ctx.Request.Context(), userID, uint(materialID))
	if err != nil {
		utils.Sugar.Errorf("get progress user=%d material=%d: %v", userID, materialID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load progress")
		return
	}

	utils.Success(ctx, progress)
}
