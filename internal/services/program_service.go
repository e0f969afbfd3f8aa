package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/internal/artifact"
	"github.com/ignis-runtime/program-registry/internal/layout"
	"github.com/ignis-runtime/program-registry/internal/models"
	"github.com/ignis-runtime/program-registry/internal/repository"
)

// ErrStorage wraps every persistence failure other than a duplicate hash.
var ErrStorage = errors.New("storage failure")

// ProgramStore persists programs and enforces uniqueness of their hash.
type ProgramStore interface {
	Create(ctx context.Context, program *models.Program) error
	FindByHash(ctx context.Context, hash string) (*models.Program, error)
}

// ProgramCache is an optional read-through cache in front of the store.
type ProgramCache interface {
	Get(ctx context.Context, hash string) (*models.Program, bool, error)
	Set(ctx context.Context, program *models.Program, expiration time.Duration) error
}

// IngestResult represents the result of an ingestion
type IngestResult struct {
	Hash          string
	Version       artifact.Version
	Builtins      []string
	Layout        string
	AlreadyExists bool // True if a program with the same hash was stored before
}

// ProgramService defines the interface for program operations
type ProgramService interface {
	Ingest(ctx context.Context, raw []byte) (*IngestResult, error)
	Fetch(ctx context.Context, hash string) (*models.Program, error)
	Resolve(builtins []string) layout.Spec
}

type programService struct {
	store    ProgramStore
	cache    ProgramCache
	cacheTTL time.Duration
	catalog  *layout.Catalog
	logger   *zap.Logger
}

// Option configures a ProgramService.
type Option func(*programService)

// WithCache enables read-through caching of fetched programs.
func WithCache(cache ProgramCache, ttl time.Duration) Option {
	return func(s *programService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func NewProgramService(store ProgramStore, catalog *layout.Catalog, logger *zap.Logger, opts ...Option) ProgramService {
	s := &programService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest canonicalizes raw, picks its layout and stores it. Re-ingesting an
// artifact whose hash is already stored succeeds with AlreadyExists set.
func (s *programService) Ingest(ctx context.Context, raw []byte) (*IngestResult, error) {
	version, err := artifact.DetectVersion(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Compiler version detected", zap.Stringer("version", version))

	canonical, err := artifact.Canonicalize(raw, version)
	if err != nil {
		return nil, err
	}

	spec := s.catalog.Resolve(canonical.Builtins)
	s.logger.Info("Program canonicalized",
		zap.String("hash", canonical.Hash),
		zap.Strings("builtins", canonical.Builtins),
		zap.String("layout", spec.Name))

	program := &models.Program{
		ID:       uuid.New(),
		Hash:     canonical.Hash,
		Code:     raw,
		Version:  int(version),
		Builtins: canonical.Builtins,
		Layout:   spec.Name,
	}

	result := &IngestResult{
		Hash:     canonical.Hash,
		Version:  version,
		Builtins: canonical.Builtins,
		Layout:   spec.Name,
	}

	if err := s.store.Create(ctx, program); err != nil {
		if errors.Is(err, repository.ErrDuplicateHash) {
			s.logger.Info("Program already stored", zap.String("hash", canonical.Hash))
			result.AlreadyExists = true
			return result, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.logger.Info("Program stored", zap.String("hash", canonical.Hash), zap.String("id", program.ID.String()))
	return result, nil
}

// Fetch returns the stored program for hash.
func (s *programService) Fetch(ctx context.Context, hash string) (*models.Program, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, hash)
		if err != nil {
			s.logger.Warn("Cache lookup failed", zap.String("hash", hash), zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	program, err := s.store.FindByHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, program, s.cacheTTL); err != nil {
			s.logger.Warn("Cache update failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	return program, nil
}

func (s *programService) Resolve(builtins []string) layout.Spec {
	return s.catalog.Resolve(builtins)
}
