package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/models"
)

type fakePresence struct {
	SetStatusFn func(ctx context.Context, userID uuid.UUID, status string) error
	HeartbeatFn func(ctx context.Context, userID uuid.UUID) error
	StatusFn    func(ctx context.Context, userID uuid.UUID) (string, error)
}

func (f *fakePresence) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	if f.SetStatusFn == nil {
		return nil
	}
	return f.SetStatusFn(ctx, userID, status)
}

func (f *fakePresence) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if f.HeartbeatFn == nil {
		return nil
	}
	return f.HeartbeatFn(ctx, userID)
}

func (f *fakePresence) Status(ctx context.Context, userID uuid.UUID) (string, error) {
	if f.StatusFn == nil {
		return "offline", nil
	}
	return f.StatusFn(ctx, userID)
}

var _ PresenceService = (*fakePresence)(nil)

func userRouter(userID uuid.UUID, h *UserHandler) *gin.Engine {
	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/users/me", h.Me)
	r.PATCH("/users/me", h.UpdateProfile)
	r.PUT("/users/me/presence", h.UpdatePresence)
	r.POST("/users/me/heartbeat", h.Heartbeat)
	r.GET("/users/:id", h.Get)
	return r
}

func TestMeReturnsCaller(t *testing.T) {
	userID := uuid.New()

	users := &fakeUsers{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			assert.Equal(t, userID, id)
			return &models.User{ID: id, Username: "ada", Email: "ada@example.com"}, nil
		},
	}
	h := NewUserHandler(users, &fakePresence{}, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada")
}

func TestGetUserOverlaysPresence(t *testing.T) {
	callerID := uuid.New()
	targetID := uuid.New()

	users := &fakeUsers{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, Username: "grace", Status: "offline"}, nil
		},
	}
	tracker := &fakePresence{
		StatusFn: func(_ context.Context, _ uuid.UUID) (string, error) {
			return "online", nil
		},
	}
	h := NewUserHandler(users, tracker, testLogger)
	r := userRouter(callerID, h)

	w := doJSON(t, r, http.MethodGet, "/users/"+targetID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)
}

func TestGetUserUnknown(t *testing.T) {
	h := NewUserHandler(&fakeUsers{}, &fakePresence{}, testLogger)
	r := userRouter(uuid.New(), h)

	w := doJSON(t, r, http.MethodGet, "/users/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfilePatchesFields(t *testing.T) {
	userID := uuid.New()

	var gotUsername, gotAvatar, gotBio *string
	users := &fakeUsers{
		UpdateProfileFn: func(_ context.Context, id uuid.UUID, username, avatar, bio *string) (*models.User, error) {
			assert.Equal(t, userID, id)
			gotUsername, gotAvatar, gotBio = username, avatar, bio
			u := &models.User{ID: id, Username: "ada", Avatar: avatar, Bio: bio}
			if username != nil {
				u.Username = *username
			}
			return u, nil
		},
	}
	h := NewUserHandler(users, &fakePresence{}, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodPatch, "/users/me", gin.H{"bio": "compilers and coffee"})
	require.Equal(t, http.StatusOK, w.Code)

	// Absent fields stay nil so the store leaves them untouched.
	assert.Nil(t, gotUsername)
	assert.Nil(t, gotAvatar)
	require.NotNil(t, gotBio)
	assert.Equal(t, "compilers and coffee", *gotBio)
	assert.Contains(t, w.Body.String(), "compilers and coffee")
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	userID := uuid.New()

	users := &fakeUsers{
		UpdateProfileFn: func(_ context.Context, _ uuid.UUID, _, _, _ *string) (*models.User, error) {
			return nil, common.ErrConflict
		},
	}
	h := NewUserHandler(users, &fakePresence{}, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodPatch, "/users/me", gin.H{"username": "grace"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateProfileRejectsShortUsername(t *testing.T) {
	h := NewUserHandler(&fakeUsers{}, &fakePresence{}, testLogger)
	r := userRouter(uuid.New(), h)

	w := doJSON(t, r, http.MethodPatch, "/users/me", gin.H{"username": "ab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePresenceValidatesStatus(t *testing.T) {
	userID := uuid.New()

	h := NewUserHandler(&fakeUsers{}, &fakePresence{}, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodPut, "/users/me/presence", gin.H{"status": "invisible"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePresencePassesThrough(t *testing.T) {
	userID := uuid.New()

	var gotStatus string
	tracker := &fakePresence{
		SetStatusFn: func(_ context.Context, id uuid.UUID, status string) error {
			assert.Equal(t, userID, id)
			gotStatus = status
			return nil
		},
	}
	h := NewUserHandler(&fakeUsers{}, tracker, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodPut, "/users/me/presence", gin.H{"status": "away"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "away", gotStatus)
}

func TestHeartbeat(t *testing.T) {
	userID := uuid.New()

	called := false
	tracker := &fakePresence{
		HeartbeatFn: func(_ context.Context, id uuid.UUID) error {
			called = true
			assert.Equal(t, userID, id)
			return nil
		},
	}
	h := NewUserHandler(&fakeUsers{}, tracker, testLogger)
	r := userRouter(userID, h)

	w := doJSON(t, r, http.MethodPost, "/users/me/heartbeat", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)
}
