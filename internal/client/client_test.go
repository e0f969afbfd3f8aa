package client

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/api/rest/server"
	"github.com/ignis-runtime/program-registry/api/rest/v1/routes"
	"github.com/ignis-runtime/program-registry/internal/layout"
	"github.com/ignis-runtime/program-registry/internal/models"
	"github.com/ignis-runtime/program-registry/internal/repository"
	"github.com/ignis-runtime/program-registry/internal/services"
)

type memoryStore struct {
	mu     sync.Mutex
	byHash map[string]models.Program
}

func (m *memoryStore) Create(_ context.Context, p *models.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[p.Hash]; ok {
		return repository.ErrDuplicateHash
	}
	m.byHash[p.Hash] = *p
	return nil
}

func (m *memoryStore) FindByHash(_ context.Context, hash string) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func newRegistry(t *testing.T) *Client {
	t.Helper()
	catalog, err := layout.DefaultCatalog()
	require.NoError(t, err)

	svc := services.NewProgramService(&memoryStore{byHash: make(map[string]models.Program)}, catalog, zap.NewNop())
	srv := server.NewServer(":0", zap.NewNop())
	routes.RegisterRoutes(srv, svc, 1<<20)

	ts := httptest.NewServer(srv.Engine)
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func TestClientRoundTrip(t *testing.T) {
	c := newRegistry(t)
	ctx := context.Background()

	raw, err := os.ReadFile(filepath.Join("..", "artifact", "testdata", "cairo0_program.json"))
	require.NoError(t, err)

	res, err := c.Upload(ctx, "program.json", raw)
	require.NoError(t, err)
	assert.False(t, res.AlreadyExists)
	assert.Equal(t, 0, res.Version)

	again, err := c.Upload(ctx, "program.json", raw)
	require.NoError(t, err)
	assert.True(t, again.AlreadyExists)
	assert.Equal(t, res.Hash, again.Hash)

	got, err := c.Download(ctx, res.Hash)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	meta, err := c.Metadata(ctx, res.Hash)
	require.NoError(t, err)
	assert.Equal(t, res.Layout, meta.Layout)
	assert.Equal(t, []string{"output", "pedersen", "range_check"}, meta.Builtins)
}

func TestClientErrors(t *testing.T) {
	c := newRegistry(t)
	ctx := context.Background()

	_, err := c.Download(ctx, "0x1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Metadata(ctx, "0x1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Upload(ctx, "program.json", []byte(`{"compiler_version": "1.0.0"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
