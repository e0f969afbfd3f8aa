package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/internal/models"
	"github.com/ignis-runtime/program-registry/internal/repository"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte)}
}

func (m *memoryObjects) UploadFile(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryObjects) DownloadFile(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type memoryRepo struct {
	mu     sync.Mutex
	byHash map[string]models.Program
}

func (r *memoryRepo) Create(_ context.Context, p *models.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHash[p.Hash]; ok {
		return repository.ErrDuplicateHash
	}
	r.byHash[p.Hash] = *p
	return nil
}

func (r *memoryRepo) FindByHash(_ context.Context, hash string) (*models.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func newProgram(hash string, code string) *models.Program {
	return &models.Program{ID: uuid.New(), Hash: hash, Code: []byte(code), Version: 2, Layout: "starknet"}
}

func TestBlobProgramStore_RoundTrip(t *testing.T) {
	repo := &memoryRepo{byHash: make(map[string]models.Program)}
	objects := newMemoryObjects()
	store := NewBlobProgramStore(repo, objects, zap.NewNop())
	ctx := context.Background()

	p := newProgram("0xabc", `{"compiler_version":"2.0.0"}`)
	require.NoError(t, store.Create(ctx, p))

	row := repo.byHash["0xabc"]
	assert.Nil(t, row.Code)
	assert.Equal(t, "programs/"+p.ID.String()+".json", row.ObjectKey)

	got, err := store.FindByHash(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, p.Code, got.Code)
}

func TestBlobProgramStore_DuplicateRemovesObject(t *testing.T) {
	repo := &memoryRepo{byHash: make(map[string]models.Program)}
	objects := newMemoryObjects()
	store := NewBlobProgramStore(repo, objects, zap.NewNop())
	ctx := context.Background()

	first := newProgram("0xabc", "first")
	require.NoError(t, store.Create(ctx, first))

	second := newProgram("0xabc", "second")
	err := store.Create(ctx, second)
	assert.ErrorIs(t, err, repository.ErrDuplicateHash)
	assert.Len(t, objects.objects, 1)

	got, err := store.FindByHash(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got.Code)
}

func TestBlobProgramStore_UploadFailure(t *testing.T) {
	repo := &memoryRepo{byHash: make(map[string]models.Program)}
	objects := newMemoryObjects()
	objects.failPut = errors.New("bucket unavailable")
	store := NewBlobProgramStore(repo, objects, zap.NewNop())

	err := store.Create(context.Background(), newProgram("0x1", "x"))
	assert.Error(t, err)
	assert.Empty(t, repo.byHash)
}

func TestBlobProgramStore_MissingObject(t *testing.T) {
	repo := &memoryRepo{byHash: make(map[string]models.Program)}
	objects := newMemoryObjects()
	store := NewBlobProgramStore(repo, objects, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newProgram("0x1", "x")))
	objects.objects = make(map[string][]byte)

	_, err := store.FindByHash(ctx, "0x1")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.FindByHash(ctx, "0x2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
