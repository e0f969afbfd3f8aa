package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/internal/models"
	"github.com/ignis-runtime/program-registry/internal/repository"
)

// BlobProgramStore keeps program code in object storage and the metadata row
// in the wrapped repository.
type BlobProgramStore struct {
	repo    repository.ProgramRepository
	objects S3Storage
	logger  *zap.Logger
}

var _ repository.ProgramRepository = (*BlobProgramStore)(nil)

func NewBlobProgramStore(repo repository.ProgramRepository, objects S3Storage, logger *zap.Logger) *BlobProgramStore {
	return &BlobProgramStore{repo: repo, objects: objects, logger: logger}
}

func objectKey(p *models.Program) string {
	return "programs/" + p.ID.String() + ".json"
}

// Create uploads the code under a key derived from the program ID, so a
// losing duplicate never overwrites the winner's object, then inserts the row.
func (s *BlobProgramStore) Create(ctx context.Context, program *models.Program) error {
	key := objectKey(program)
	if err := s.objects.UploadFile(ctx, key, program.Code); err != nil {
		return fmt.Errorf("failed to upload program to S3: %w", err)
	}

	row := *program
	row.Code = nil
	row.ObjectKey = key

	if err := s.repo.Create(ctx, &row); err != nil {
		if delErr := s.objects.DeleteFile(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned program object", zap.String("key", key), zap.Error(delErr))
		}
		return err
	}

	program.ObjectKey = key
	program.CreatedAt = row.CreatedAt
	return nil
}

func (s *BlobProgramStore) FindByHash(ctx context.Context, hash string) (*models.Program, error) {
	program, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if program.ObjectKey == "" {
		// Stored before offloading was enabled.
		return program, nil
	}

	code, err := s.objects.DownloadFile(ctx, program.ObjectKey)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, fmt.Errorf("program %s references missing object %s: %w", hash, program.ObjectKey, err)
	}
	if err != nil {
		return nil, err
	}
	program.Code = code
	return program, nil
}
