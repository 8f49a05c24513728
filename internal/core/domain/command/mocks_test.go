package command

import (
	"context"
	"errors"
	"imgfx/internal/core/domain"
	"imgfx/internal/core/service"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type MockTextSender struct {
	mu      sync.Mutex
	err     error
	Message string
	actions []domain.Action
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, message string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Message = message
	return 0, m.err
}

func (m *MockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Message = err.Error()
	if m.err != nil {
		return m.err
	}
	return err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, action domain.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func (m *MockTextSender) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Message
}

type MockBackend struct {
	uploadErr  error
	processErr error
	galleryErr error
	entries    []domain.GalleryEntry
	uploads    int
}

func (m *MockBackend) Upload(_ context.Context, data []byte, filename string) (domain.UploadedImage, error) {
	m.uploads++
	if m.uploadErr != nil {
		return domain.UploadedImage{}, m.uploadErr
	}
	return domain.UploadedImage{Filename: "stored-" + filename, URL: "/uploads/stored-" + filename}, nil
}

func (m *MockBackend) Process(_ context.Context, filename, effect string) (domain.ProcessedImage, error) {
	if m.processErr != nil {
		return domain.ProcessedImage{}, m.processErr
	}
	return domain.ProcessedImage{Effect: effect, URL: "/processed/" + effect + "_" + filename}, nil
}

func (m *MockBackend) FetchAll(context.Context) ([]domain.GalleryEntry, error) {
	return m.entries, m.galleryErr
}

func (m *MockBackend) ResolveURL(ref string) (string, error) {
	return "http://backend.test" + ref, nil
}

type MockDownloader struct {
	data  []byte
	err   error
	calls int
}

func (m *MockDownloader) DownloadFile(context.Context, string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

type MockSessions struct {
	wf  *service.Workflow
	err error
}

func (m *MockSessions) Session(context.Context, int64) (*service.Workflow, error) {
	return m.wf, m.err
}

func newValidator(t *testing.T) *domain.Validator {
	t.Helper()
	v, err := domain.NewValidator(domain.DefaultAllowedTypes, domain.DefaultMaxUploadBytes)
	require.NoError(t, err)
	return v
}

func newSessions(t *testing.T, backend *MockBackend) *MockSessions {
	t.Helper()
	return &MockSessions{wf: service.NewWorkflow(service.WorkflowParams{
		Uploader:  backend,
		Processor: backend,
		Gallery:   backend,
		Catalog:   domain.DefaultCatalog(),
		Validator: newValidator(t),
		Timeout:   time.Second,
	})}
}

var errSession = errors.New("session store closed")
