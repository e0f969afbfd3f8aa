package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"github.com/ignis-runtime/program-registry/internal/database"
	"github.com/ignis-runtime/program-registry/internal/models"
)

var programColumns = []string{"id", "hash", "code", "object_key", "version", "builtins", "layout", "created_at"}

func newMockRepository(t *testing.T) (ProgramRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := database.New(postgres.New(postgres.Config{Conn: db}), zap.NewNop())
	require.NoError(t, err)

	return NewProgramRepository(gdb), mock
}

func testProgram() *models.Program {
	return &models.Program{
		ID:       uuid.New(),
		Hash:     "0x1234",
		Code:     []byte(`{"compiler_version": "2.6.3"}`),
		Version:  2,
		Builtins: pq.StringArray{"pedersen", "range_check"},
		Layout:   "recursive_with_poseidon",
	}
}

func TestProgramRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "programs"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(ctx, testProgram())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "programs"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(ctx, testProgram())
	assert.ErrorIs(t, err, ErrDuplicateHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepository_CreateFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "programs"`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(ctx, testProgram())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateHash)
}

func TestProgramRepository_FindByHash(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()
	p := testProgram()

	rows := sqlmock.NewRows(programColumns).
		AddRow(p.ID.String(), p.Hash, p.Code, "", p.Version, "{pedersen,range_check}", p.Layout, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "programs" WHERE hash = $1`)).
		WillReturnRows(rows)

	got, err := repo.FindByHash(ctx, p.Hash)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Code, got.Code)
	assert.Equal(t, p.Builtins, got.Builtins)
	assert.Equal(t, p.Layout, got.Layout)
}

func TestProgramRepository_FindByHashNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "programs" WHERE hash = $1`)).
		WillReturnRows(sqlmock.NewRows(programColumns))

	_, err := repo.FindByHash(ctx, "0xdead")
	assert.ErrorIs(t, err, ErrNotFound)
}
