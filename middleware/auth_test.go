package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readably/readably-backend/models"
	"github.com/readably/readably-backend/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired()}, extra...)
	handlers = append(handlers, func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		role, _ := ctx.Get(ContextRoleKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id, "role": role})
	})
	r.GET("/whoami", handlers...)
	return r
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abcdef")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	token, err := utils.GenerateToken(5, "casey", models.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestAuthRequiredRejectsRevokedToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "riley", models.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	utils.RevokeToken(token, time.Now().Add(time.Hour))

	r := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for revoked token", w.Code)
	}
}

func TestParentOnlyGate(t *testing.T) {
	student, err := utils.GenerateToken(5, "casey", models.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parent, err := utils.GenerateToken(6, "jordan", models.RoleParent, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	r := newAuthRouter(ParentOnly())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("student status = %d, want 403", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+parent)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("parent status = %d, want 200", w.Code)
	}
}
