package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/middleware"
	"github.com/parley-im/parley/internal/models"
	"github.com/parley-im/parley/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for AuthMiddleware: tests pick the caller identity
// directly instead of minting tokens.
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// memberOf builds a MembershipRepository fake that recognizes one
// (user, room) pair with the given role.
func memberOf(userID, roomID uuid.UUID, role models.MemberRole) *fakeMemberships {
	return &fakeMemberships{
		GetFn: func(_ context.Context, u, r uuid.UUID) (*models.Membership, error) {
			if u == userID && r == roomID {
				return &models.Membership{UserID: u, RoomID: r, Role: role}, nil
			}
			return nil, nil
		},
	}
}

func liveMsg(id, roomID, senderID uuid.UUID) *models.Message {
	return &models.Message{
		ID:        id,
		RoomID:    roomID,
		SenderID:  senderID,
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	}
}

var testLogger = zap.NewNop()

// Function-field fakes for the repository interfaces. Unset methods return
// zero values so tests only wire what they exercise.

type fakeUsers struct {
	CreateFn         func(ctx context.Context, email, username, passwordHash string) (*models.User, error)
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByLoginFn     func(ctx context.Context, login string) (*models.User, error)
	AllExistFn       func(ctx context.Context, ids []uuid.UUID) (bool, error)
	UpdateProfileFn  func(ctx context.Context, id uuid.UUID, username, avatar, bio *string) (*models.User, error)
	UpdatePresenceFn func(ctx context.Context, id uuid.UUID, status string, lastSeen time.Time) error
}

func (f *fakeUsers) Create(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	if f.CreateFn == nil {
		return nil, nil
	}
	return f.CreateFn(ctx, email, username, passwordHash)
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeUsers) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.GetByLoginFn == nil {
		return nil, nil
	}
	return f.GetByLoginFn(ctx, login)
}

func (f *fakeUsers) AllExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if f.AllExistFn == nil {
		return true, nil
	}
	return f.AllExistFn(ctx, ids)
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id uuid.UUID, username, avatar, bio *string) (*models.User, error) {
	if f.UpdateProfileFn == nil {
		return &models.User{ID: id}, nil
	}
	return f.UpdateProfileFn(ctx, id, username, avatar, bio)
}

func (f *fakeUsers) UpdatePresence(ctx context.Context, id uuid.UUID, status string, lastSeen time.Time) error {
	if f.UpdatePresenceFn == nil {
		return nil
	}
	return f.UpdatePresenceFn(ctx, id, status, lastSeen)
}

type fakeRooms struct {
	CreateFn            func(ctx context.Context, params repository.CreateRoomParams) (*models.Room, error)
	GetByIDFn           func(ctx context.Context, roomID uuid.UUID) (*models.Room, error)
	ListByUserFn        func(ctx context.Context, userID uuid.UUID) ([]models.Room, error)
	UpdateFn            func(ctx context.Context, roomID uuid.UUID, name, description, avatar *string) (*models.Room, error)
	DeleteFn            func(ctx context.Context, roomID uuid.UUID) error
	PrivateRoomExistsFn func(ctx context.Context, a, b uuid.UUID) (bool, error)
}

func (f *fakeRooms) Create(ctx context.Context, params repository.CreateRoomParams) (*models.Room, error) {
	if f.CreateFn == nil {
		return &models.Room{ID: uuid.New(), Type: params.Type}, nil
	}
	return f.CreateFn(ctx, params)
}

func (f *fakeRooms) GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, roomID)
}

func (f *fakeRooms) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	if f.ListByUserFn == nil {
		return nil, nil
	}
	return f.ListByUserFn(ctx, userID)
}

func (f *fakeRooms) Update(ctx context.Context, roomID uuid.UUID, name, description, avatar *string) (*models.Room, error) {
	if f.UpdateFn == nil {
		return nil, nil
	}
	return f.UpdateFn(ctx, roomID, name, description, avatar)
}

func (f *fakeRooms) Delete(ctx context.Context, roomID uuid.UUID) error {
	if f.DeleteFn == nil {
		return nil
	}
	return f.DeleteFn(ctx, roomID)
}

func (f *fakeRooms) PrivateRoomExists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if f.PrivateRoomExistsFn == nil {
		return false, nil
	}
	return f.PrivateRoomExistsFn(ctx, a, b)
}

type fakeMemberships struct {
	GetFn          func(ctx context.Context, userID, roomID uuid.UUID) (*models.Membership, error)
	AddMemberFn    func(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error
	RemoveMemberFn func(ctx context.Context, roomID, userID uuid.UUID) error
	ListMembersFn  func(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error)
}

func (f *fakeMemberships) Get(ctx context.Context, userID, roomID uuid.UUID) (*models.Membership, error) {
	if f.GetFn == nil {
		return nil, nil
	}
	return f.GetFn(ctx, userID, roomID)
}

func (f *fakeMemberships) AddMember(ctx context.Context, roomID, userID uuid.UUID, role models.MemberRole) error {
	if f.AddMemberFn == nil {
		return nil
	}
	return f.AddMemberFn(ctx, roomID, userID, role)
}

func (f *fakeMemberships) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) error {
	if f.RemoveMemberFn == nil {
		return nil
	}
	return f.RemoveMemberFn(ctx, roomID, userID)
}

func (f *fakeMemberships) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	if f.ListMembersFn == nil {
		return nil, nil
	}
	return f.ListMembersFn(ctx, roomID)
}

type fakeMessages struct {
	CreateFn        func(ctx context.Context, roomID, senderID uuid.UUID, receiverID, replyToID *uuid.UUID, body *string) (*models.Message, error)
	GetMetaFn       func(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByRoomFn    func(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]models.Message, error)
	UpdateContentFn func(ctx context.Context, messageID uuid.UUID, body string) (*models.MessageContent, error)
	SoftDeleteFn    func(ctx context.Context, messageID uuid.UUID) error
	UpdateStatusFn  func(ctx context.Context, messageID uuid.UUID, status models.MessageStatus) error
}

func (f *fakeMessages) Create(ctx context.Context, roomID, senderID uuid.UUID, receiverID, replyToID *uuid.UUID, body *string) (*models.Message, error) {
	if f.CreateFn == nil {
		return liveMsg(uuid.New(), roomID, senderID), nil
	}
	return f.CreateFn(ctx, roomID, senderID, receiverID, replyToID, body)
}

func (f *fakeMessages) GetMeta(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	if f.GetMetaFn == nil {
		return nil, nil
	}
	return f.GetMetaFn(ctx, id)
}

func (f *fakeMessages) ListByRoom(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	if f.ListByRoomFn == nil {
		return nil, nil
	}
	return f.ListByRoomFn(ctx, roomID, before, limit)
}

func (f *fakeMessages) UpdateContent(ctx context.Context, messageID uuid.UUID, body string) (*models.MessageContent, error) {
	if f.UpdateContentFn == nil {
		return &models.MessageContent{MessageID: messageID, Body: body, Edited: true}, nil
	}
	return f.UpdateContentFn(ctx, messageID, body)
}

func (f *fakeMessages) SoftDelete(ctx context.Context, messageID uuid.UUID) error {
	if f.SoftDeleteFn == nil {
		return nil
	}
	return f.SoftDeleteFn(ctx, messageID)
}

func (f *fakeMessages) UpdateStatus(ctx context.Context, messageID uuid.UUID, status models.MessageStatus) error {
	if f.UpdateStatusFn == nil {
		return nil
	}
	return f.UpdateStatusFn(ctx, messageID, status)
}

type fakeReactions struct {
	AddFn           func(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*models.Reaction, error)
	RemoveFn        func(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	ListByMessageFn func(ctx context.Context, messageID uuid.UUID) ([]models.Reaction, error)
}

func (f *fakeReactions) Add(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*models.Reaction, error) {
	if f.AddFn == nil {
		return &models.Reaction{ID: uuid.New(), MessageID: messageID, UserID: userID, Emoji: emoji}, nil
	}
	return f.AddFn(ctx, messageID, userID, emoji)
}

func (f *fakeReactions) Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	if f.RemoveFn == nil {
		return nil
	}
	return f.RemoveFn(ctx, messageID, userID, emoji)
}

func (f *fakeReactions) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Reaction, error) {
	if f.ListByMessageFn == nil {
		return nil, nil
	}
	return f.ListByMessageFn(ctx, messageID)
}

type fakeReceipts struct {
	MarkReadFn    func(ctx context.Context, roomID, userID uuid.UUID, messageIDs []uuid.UUID) error
	ListReadersFn func(ctx context.Context, messageID uuid.UUID) ([]models.ReadReceipt, error)
}

func (f *fakeReceipts) MarkRead(ctx context.Context, roomID, userID uuid.UUID, messageIDs []uuid.UUID) error {
	if f.MarkReadFn == nil {
		return nil
	}
	return f.MarkReadFn(ctx, roomID, userID, messageIDs)
}

func (f *fakeReceipts) ListReaders(ctx context.Context, messageID uuid.UUID) ([]models.ReadReceipt, error) {
	if f.ListReadersFn == nil {
		return nil, nil
	}
	return f.ListReadersFn(ctx, messageID)
}

type fakePins struct {
	PinFn        func(ctx context.Context, roomID, messageID, pinnedByID uuid.UUID, note *string) (*models.PinnedMessage, error)
	UnpinFn      func(ctx context.Context, roomID, messageID uuid.UUID) error
	ListByRoomFn func(ctx context.Context, roomID uuid.UUID) ([]models.PinnedMessage, error)
}

func (f *fakePins) Pin(ctx context.Context, roomID, messageID, pinnedByID uuid.UUID, note *string) (*models.PinnedMessage, error) {
	if f.PinFn == nil {
		return &models.PinnedMessage{ID: uuid.New(), MessageID: messageID, RoomID: roomID, PinnedByID: pinnedByID, Note: note}, nil
	}
	return f.PinFn(ctx, roomID, messageID, pinnedByID, note)
}

func (f *fakePins) Unpin(ctx context.Context, roomID, messageID uuid.UUID) error {
	if f.UnpinFn == nil {
		return nil
	}
	return f.UnpinFn(ctx, roomID, messageID)
}

func (f *fakePins) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.PinnedMessage, error) {
	if f.ListByRoomFn == nil {
		return nil, nil
	}
	return f.ListByRoomFn(ctx, roomID)
}

type fakeContacts struct {
	CreateFn func(ctx context.Context, userID, contactID uuid.UUID, name *string) (*models.Contact, error)
	ListFn   func(ctx context.Context, userID uuid.UUID) ([]models.Contact, error)
	RenameFn func(ctx context.Context, userID, contactID uuid.UUID, name string) (*models.Contact, error)
	DeleteFn func(ctx context.Context, userID, contactID uuid.UUID) error
}

func (f *fakeContacts) Create(ctx context.Context, userID, contactID uuid.UUID, name *string) (*models.Contact, error) {
	if f.CreateFn == nil {
		return &models.Contact{ID: uuid.New(), UserID: userID, ContactID: contactID, Name: name}, nil
	}
	return f.CreateFn(ctx, userID, contactID, name)
}

func (f *fakeContacts) List(ctx context.Context, userID uuid.UUID) ([]models.Contact, error) {
	if f.ListFn == nil {
		return nil, nil
	}
	return f.ListFn(ctx, userID)
}

func (f *fakeContacts) Rename(ctx context.Context, userID, contactID uuid.UUID, name string) (*models.Contact, error) {
	if f.RenameFn == nil {
		return nil, nil
	}
	return f.RenameFn(ctx, userID, contactID, name)
}

func (f *fakeContacts) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	if f.DeleteFn == nil {
		return nil
	}
	return f.DeleteFn(ctx, userID, contactID)
}

type fakeAttachments struct {
	CreateFn        func(ctx context.Context, messageID, userID uuid.UUID, url string, kind models.AttachmentType, name *string, size *int64) (*models.Attachment, error)
	ListByMessageFn func(ctx context.Context, messageID uuid.UUID) ([]models.Attachment, error)
}

func (f *fakeAttachments) Create(ctx context.Context, messageID, userID uuid.UUID, url string, kind models.AttachmentType, name *string, size *int64) (*models.Attachment, error) {
	if f.CreateFn == nil {
		return &models.Attachment{ID: uuid.New(), MessageID: messageID, UserID: userID, URL: url, Type: kind, Name: name, Size: size}, nil
	}
	return f.CreateFn(ctx, messageID, userID, url, kind, name, size)
}

func (f *fakeAttachments) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]models.Attachment, error) {
	if f.ListByMessageFn == nil {
		return nil, nil
	}
	return f.ListByMessageFn(ctx, messageID)
}

type fakeNotifications struct {
	CreateFn      func(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, body string) (*models.Notification, error)
	ListFn        func(ctx context.Context, userID uuid.UUID, before *time.Time, limit int) ([]models.Notification, error)
	SetReadFn     func(ctx context.Context, userID, id uuid.UUID, read bool) (*models.Notification, error)
	MarkAllReadFn func(ctx context.Context, userID uuid.UUID) error
	DeleteFn      func(ctx context.Context, userID, id uuid.UUID) error
}

func (f *fakeNotifications) Create(ctx context.Context, userID uuid.UUID, kind models.NotificationType, title, body string) (*models.Notification, error) {
	if f.CreateFn == nil {
		return &models.Notification{ID: uuid.New(), UserID: userID, Type: kind, Title: title, Body: body}, nil
	}
	return f.CreateFn(ctx, userID, kind, title, body)
}

func (f *fakeNotifications) List(ctx context.Context, userID uuid.UUID, before *time.Time, limit int) ([]models.Notification, error) {
	if f.ListFn == nil {
		return nil, nil
	}
	return f.ListFn(ctx, userID, before, limit)
}

func (f *fakeNotifications) SetRead(ctx context.Context, userID, id uuid.UUID, read bool) (*models.Notification, error) {
	if f.SetReadFn == nil {
		return nil, nil
	}
	return f.SetReadFn(ctx, userID, id, read)
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if f.MarkAllReadFn == nil {
		return nil
	}
	return f.MarkAllReadFn(ctx, userID)
}

func (f *fakeNotifications) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if f.DeleteFn == nil {
		return nil
	}
	return f.DeleteFn(ctx, userID, id)
}

var (
	_ repository.UserRepository         = (*fakeUsers)(nil)
	_ repository.RoomRepository         = (*fakeRooms)(nil)
	_ repository.MembershipRepository   = (*fakeMemberships)(nil)
	_ repository.MessageRepository      = (*fakeMessages)(nil)
	_ repository.ReactionRepository     = (*fakeReactions)(nil)
	_ repository.ReadReceiptRepository  = (*fakeReceipts)(nil)
	_ repository.PinRepository          = (*fakePins)(nil)
	_ repository.ContactRepository      = (*fakeContacts)(nil)
	_ repository.AttachmentRepository   = (*fakeAttachments)(nil)
	_ repository.NotificationRepository = (*fakeNotifications)(nil)
)
