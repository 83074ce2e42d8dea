package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parley-im/parley/internal/auth"
	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

const testSecret = "test-secret"

func authRouter(h *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func TestRegisterIssuesToken(t *testing.T) {
	users := &fakeUsers{
		CreateFn: func(_ context.Context, email, username, passwordHash string) (*models.User, error) {
			assert.NotEqual(t, "hunter2secret", passwordHash)
			return &models.User{ID: uuid.New(), Email: email, Username: username}, nil
		},
	}
	h := NewAuthHandler(users, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email":    "ada@example.com",
		"username": "ada",
		"password": "hunter2secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := auth.ParseToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	users := &fakeUsers{
		CreateFn: func(_ context.Context, _, _, _ string) (*models.User, error) {
			return nil, common.ErrConflict
		},
	}
	h := NewAuthHandler(users, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email":    "ada@example.com",
		"username": "ada",
		"password": "hunter2secret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterWeakPasswordRejected(t *testing.T) {
	h := NewAuthHandler(&fakeUsers{}, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email":    "ada@example.com",
		"username": "ada",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeUsers{
		GetByLoginFn: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Username: "ada", PasswordHash: string(hash)}, nil
		},
	}
	h := NewAuthHandler(users, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"login":    "ada",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	h := NewAuthHandler(&fakeUsers{}, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"login":    "nobody",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginSucceeds(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	users := &fakeUsers{
		GetByLoginFn: func(_ context.Context, login string) (*models.User, error) {
			assert.Equal(t, "ada@example.com", login)
			return &models.User{ID: userID, Username: "ada", PasswordHash: string(hash)}, nil
		},
	}
	h := NewAuthHandler(users, testSecret, time.Hour, testLogger)
	r := authRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"login":    "ada@example.com",
		"password": "correct-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := auth.ParseToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
