package handler

import (
	"context"
	"errors"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/port"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRegistry struct {
	mock.Mock
	cmd port.Command
}

func (m *MockRegistry) Get(cmd string) (port.Command, error) {
	args := m.Called(cmd)
	return m.cmd, args.Error(1)
}

func (m *MockRegistry) Register(handler port.Command) {
	m.cmd = handler
	m.Called(handler)
}

func (m *MockRegistry) ListCommands() []string {
	m.Called()
	return []string{"foo", "bar"}
}

type MockCmdHandler struct {
	err       error
	responded chan *domain.Message
}

func (m *MockCmdHandler) Respond(_ context.Context, _ time.Duration, msg *domain.Message) error {
	m.responded <- msg
	return m.err
}

func (m *MockCmdHandler) GetCommand() string {
	return ""
}

type MockAuth struct {
	allowed bool
	calls   int
}

func (m *MockAuth) IsAuthorized(context.Context, int64) bool {
	m.calls++
	return m.allowed
}

type MockFiles struct {
	mock.Mock
}

func (m *MockFiles) GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error) {
	args := m.Called(ctx, params)
	f, _ := args.Get(0).(*models.File)
	return f, args.Error(1)
}

func (m *MockFiles) FileDownloadLink(f *models.File) string {
	return "https://api.telegram.org/file/bot/" + f.FilePath
}

func makeUpdate(txt string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Text: txt,
			Chat: models.Chat{ID: 100},
			From: &models.User{ID: 200, Username: "bob", FirstName: "bob"},
		},
	}
}

func makePhotoUpdate(caption string) *models.Update {
	u := makeUpdate("")
	u.Message.Caption = caption
	u.Message.Photo = []models.PhotoSize{
		{FileID: "small", FileUniqueID: "u1", FileSize: 1000},
		{FileID: "large", FileUniqueID: "u2", FileSize: 90000},
	}
	return u
}

func makeDocumentUpdate(caption string) *models.Update {
	u := makeUpdate("")
	u.Message.Caption = caption
	u.Message.Document = &models.Document{FileID: "doc", FileName: "file.gif", MimeType: "image/gif", FileSize: 2048}
	return u
}

func TestCommandHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		update     *models.Update
		allowed    bool
		mockSetup  func(r *MockRegistry, f *MockFiles)
		wantCalled bool
		wantAuth   int
		wantMsg    *domain.Message
		wantNotice string
	}{
		{
			name:      "no message in update",
			update:    &models.Update{},
			mockSetup: func(*MockRegistry, *MockFiles) {},
		},
		{
			name:   "unknown command",
			update: makeUpdate("/unknown"),
			mockSetup: func(r *MockRegistry, _ *MockFiles) {
				r.On("Get", "/unknown").Return(nil, errors.New("no handler"))
			},
		},
		{
			name:    "unauthorized chat",
			update:  makeUpdate("/status"),
			allowed: false,
			mockSetup: func(r *MockRegistry, _ *MockFiles) {
				r.On("Get", "/status").Return(nil, nil)
			},
			wantAuth: 1,
		},
		{
			name:    "known command, Respond called",
			update:  makeUpdate("/effect@imgfx_bot sepia"),
			allowed: true,
			mockSetup: func(r *MockRegistry, _ *MockFiles) {
				r.On("Get", "/effect").Return(nil, nil)
			},
			wantCalled: true,
			wantAuth:   1,
			wantMsg: &domain.Message{
				ID:       1,
				ChatID:   100,
				Username: "@bob",
				Text:     "/effect@imgfx_bot sepia",
			},
		},
		{
			name:    "photo is routed to upload",
			update:  makePhotoUpdate("sepia"),
			allowed: true,
			mockSetup: func(r *MockRegistry, f *MockFiles) {
				r.On("Get", "/upload").Return(nil, nil)
				f.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "large"}).
					Return(&models.File{FilePath: "photos/large.jpg"}, nil)
			},
			wantCalled: true,
			wantAuth:   1,
			wantMsg: &domain.Message{
				ID:            1,
				ChatID:        100,
				Username:      "@bob",
				Text:          "/upload sepia",
				ImageURL:      "https://api.telegram.org/file/bot/photos/large.jpg",
				ImageName:     "photo_u2.jpg",
				ImageMimeType: "image/jpeg",
				ImageSize:     90000,
			},
		},
		{
			name:    "document with command caption",
			update:  makeDocumentUpdate("/upload blur"),
			allowed: true,
			mockSetup: func(r *MockRegistry, f *MockFiles) {
				r.On("Get", "/upload").Return(nil, nil)
				f.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "doc"}).
					Return(&models.File{FilePath: "documents/file.gif"}, nil)
			},
			wantCalled: true,
			wantAuth:   1,
			wantMsg: &domain.Message{
				ID:            1,
				ChatID:        100,
				Username:      "@bob",
				Text:          "/upload blur",
				ImageURL:      "https://api.telegram.org/file/bot/documents/file.gif",
				ImageName:     "file.gif",
				ImageMimeType: "image/gif",
				ImageSize:     2048,
			},
		},
		{
			name:    "file lookup failure is reported instead of responding",
			update:  makePhotoUpdate(""),
			allowed: true,
			mockSetup: func(r *MockRegistry, f *MockFiles) {
				r.On("Get", "/upload").Return(nil, nil)
				f.On("GetFile", mock.Anything, mock.Anything).Return(nil, errors.New("file is too big"))
			},
			wantAuth:   1,
			wantNotice: "error getting image from telegram: file is too big",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := new(MockRegistry)
			files := new(MockFiles)
			handler := &MockCmdHandler{responded: make(chan *domain.Message, 1)}
			reg.cmd = handler
			auth := &MockAuth{allowed: tc.allowed}
			sender := &recordingSender{}
			tc.mockSetup(reg, files)

			ch := NewCommand(CommandParams{
				Registry:      reg,
				Auth:          auth,
				Files:         files,
				TextSender:    sender,
				Timeout:       3 * time.Second,
				UploadCommand: "/upload",
				MaxPhotoBytes: domain.DefaultMaxUploadBytes,
			})
			ch.Handle(testContext(t), nil, tc.update)

			if tc.wantCalled {
				select {
				case msg := <-handler.responded:
					assert.Equal(t, tc.wantMsg, msg)
				case <-time.After(time.Second):
					t.Fatal("Respond was not called")
				}
			} else {
				select {
				case <-handler.responded:
					t.Fatal("Respond should not have been called")
				case <-time.After(50 * time.Millisecond):
				}
			}

			if tc.wantNotice != "" {
				assert.Eventually(t, func() bool {
					texts, _ := sender.snapshot()
					return len(texts) == 1 && texts[0] == tc.wantNotice
				}, time.Second, 5*time.Millisecond)
			} else {
				texts, _ := sender.snapshot()
				assert.Empty(t, texts)
			}

			assert.Equal(t, tc.wantAuth, auth.calls)
			reg.AssertExpectations(t)
			files.AssertExpectations(t)
		})
	}
}

func Test_findLargestPhoto(t *testing.T) {
	tests := []struct {
		name     string
		photos   []models.PhotoSize
		maxBytes int64
		want     string
	}{
		{
			name: "returns largest photo under the limit",
			photos: []models.PhotoSize{
				{FileID: "id1", FileSize: 12000},
				{FileID: "id2", FileSize: 100000},
				{FileID: "id3", FileSize: 150000},
			},
			maxBytes: 120000,
			want:     "id2",
		},
		{
			name: "no limit picks the largest",
			photos: []models.PhotoSize{
				{FileID: "small", FileSize: 10},
				{FileID: "large", FileSize: 20},
			},
			want: "large",
		},
		{
			name: "falls back to smallest when all are too large",
			photos: []models.PhotoSize{
				{FileID: "big", FileSize: 500},
				{FileID: "bigger", FileSize: 900},
			},
			maxBytes: 100,
			want:     "big",
		},
		{
			name: "single photo",
			photos: []models.PhotoSize{
				{FileID: "only", FileSize: 10},
			},
			maxBytes: 100,
			want:     "only",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := findLargestPhoto(tc.photos, tc.maxBytes)
			assert.Equal(t, tc.want, got.FileID)
		})
	}
}

func Test_getUserNameFromMessage(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		expected string
	}{
		{
			name:     "username present",
			user:     &models.User{Username: "alice", FirstName: "Alice"},
			expected: "@alice",
		},
		{
			name:     "empty username, fallback to first name",
			user:     &models.User{Username: "", FirstName: "Bob"},
			expected: "Bob",
		},
		{
			name:     "no user",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, getUserNameFromMessage(tc.user))
		})
	}
}

func TestUploadText(t *testing.T) {
	c := NewCommand(CommandParams{UploadCommand: "/upload"})

	tests := []struct {
		caption string
		want    string
	}{
		{caption: "", want: "/upload"},
		{caption: "  sepia ", want: "/upload sepia"},
		{caption: "/effect blur", want: "/upload blur"},
		{caption: "/upload", want: "/upload"},
	}

	for _, tc := range tests {
		t.Run(tc.caption, func(t *testing.T) {
			require.Equal(t, tc.want, c.uploadText(tc.caption))
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		update *models.Update
		want   bool
	}{
		{name: "no message", update: &models.Update{}, want: false},
		{name: "command", update: makeUpdate("/process"), want: true},
		{name: "plain text", update: makeUpdate("hello"), want: false},
		{name: "photo without caption", update: makePhotoUpdate(""), want: true},
		{name: "document", update: makeDocumentUpdate("sepia"), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.update))
		})
	}
}
