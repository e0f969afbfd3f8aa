package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ignis-runtime/program-registry/internal/models"
)

const uniqueViolation = "23505"

var (
	// ErrDuplicateHash is returned by Create when a program with the same hash
	// is already stored.
	ErrDuplicateHash = errors.New("program with the same hash already exists")
	ErrNotFound      = errors.New("program not found")
)

// ProgramRepository defines the persistence operations for programs
type ProgramRepository interface {
	Create(ctx context.Context, program *models.Program) error
	FindByHash(ctx context.Context, hash string) (*models.Program, error)
}

type programRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{
		db: db,
	}
}

// Create inserts the program. The unique index on hash decides which of two
// concurrent inserts wins.
func (r *programRepository) Create(ctx context.Context, program *models.Program) error {
	err := r.db.WithContext(ctx).Create(program).Error
	if isUniqueViolation(err) {
		return ErrDuplicateHash
	}
	return err
}

func (r *programRepository) FindByHash(ctx context.Context, hash string) (*models.Program, error) {
	var program models.Program
	err := r.db.WithContext(ctx).First(&program, "hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
