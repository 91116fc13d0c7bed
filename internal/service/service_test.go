package service

import (
	"bytes"
	"context"
	"devfolio/portfolio-api/db"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/internal/store"
	"devfolio/portfolio-api/pkg/security"
	"errors"
	"mime/multipart"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Mail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, mail)
	return nil
}

type fakeImageHost struct {
	mu         sync.Mutex
	stored     map[string]bool
	deleted    []string
	failFolder string
}

func newFakeImageHost() *fakeImageHost {
	return &fakeImageHost{stored: map[string]bool{}}
}

func (h *fakeImageHost) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (model.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if folder == h.failFolder {
		return model.Asset{}, errors.New("upload failed")
	}

	id := objectKey(folder, fh.Filename)
	h.stored[id] = true

	return model.Asset{PublicID: id, URL: "https://cdn.test/" + id}, nil
}

func (h *fakeImageHost) Delete(_ context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.stored, publicID)
	h.deleted = append(h.deleted, publicID)
	return nil
}

func (h *fakeImageHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.stored)
}

func newTestUsers(t *testing.T) *store.UserStore {
	t.Helper()

	conn, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)

	return store.NewUserStore(conn, &security.Hasher{Cost: 4}, 0)
}

func formFile(t *testing.T, field, name string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte("content of " + name))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File[field][0]
}
