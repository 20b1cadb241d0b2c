package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
)

// In-memory fakes mirroring the repository contracts, including the
// atomic uniqueness guarantee the accounts table provides.

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account // by email
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]models.Account)}
}

func (f *fakeAccountStore) Create(_ context.Context, account models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[account.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	f.accounts[account.Email] = account
	return nil
}

func (f *fakeAccountStore) FindByEmail(_ context.Context, email string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[email]
	if !ok {
		return models.Account{}, repository.ErrUserNotFound
	}
	return account, nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return models.Account{}, repository.ErrUserNotFound
}

func (f *fakeAccountStore) MarkVerified(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	account.IsVerified = true
	f.accounts[email] = account
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

type fakeDocumentStore struct {
	mu   sync.Mutex
	docs []models.Document
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{}
}

func (f *fakeDocumentStore) Create(_ context.Context, doc models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, id string) (models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return models.Document{}, repository.ErrDocumentNotFound
}

func (f *fakeDocumentStore) List(_ context.Context) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Document, len(f.docs))
	copy(out, f.docs)
	// Newest first, as the repository orders.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeDocumentStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, doc := range f.docs {
		if doc.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrDocumentNotFound
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	removeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Bucket() string { return "test-bucket" }

func (f *fakeBlobStore) Put(_ context.Context, objectKey string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectKey] = data
	return nil
}

func (f *fakeBlobStore) OpenRead(_ context.Context, objectKey string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Remove(_ context.Context, objectKey string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to string, _ string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}
