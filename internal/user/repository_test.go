package user

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/redmonkez12/teamtasks/internal/database/dbtest"
)

func newTestRepository(t *testing.T) (*Repository, *bun.DB) {
	t.Helper()
	db := dbtest.NewSQLite(t)
	return NewRepository(db), db
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRepository(bun.NewDB(sqlDB, pgdialect.New())), mock
}

func aliceInput() NewUser {
	return NewUser{
		Username:       "alice",
		Email:          "a@x.com",
		HashedPassword: "$2a$04$hash",
		Avatar:         "/path/to/default/avatar.jpg",
	}
}

func TestCreateUser_PersistsUserAndCredential(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, aliceInput())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	u, c, err := repo.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
	require.NotNil(t, u.Avatar)
	assert.Equal(t, "/path/to/default/avatar.jpg", *u.Avatar)
	assert.False(t, u.IsConfirmed)

	assert.Equal(t, id, c.UserID)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, "$2a$04$hash", c.HashedPassword)
	assert.NotEqual(t, uuid.Nil, c.ID)

	assert.Equal(t, 1, dbtest.Count(t, db, "users"))
	assert.Equal(t, 1, dbtest.Count(t, db, "credentials"))
}

func TestCreateUser_WithoutAvatar(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	in := aliceInput()
	in.Avatar = ""
	_, err := repo.CreateUser(ctx, in)
	require.NoError(t, err)

	u, _, err := repo.FindUserByEmail(ctx, in.Email)
	require.NoError(t, err)
	assert.Nil(t, u.Avatar)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, aliceInput())
	require.NoError(t, err)

	second := aliceInput()
	second.Username = "alice2"
	_, err = repo.CreateUser(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateUser)

	assert.Equal(t, 1, dbtest.Count(t, db, "users"))
	assert.Equal(t, 1, dbtest.Count(t, db, "credentials"))
}

func TestCreateUser_ConcurrentDuplicates(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateUser(ctx, aliceInput())
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateUser):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
	assert.Equal(t, 1, dbtest.Count(t, db, "credentials"))
}

func TestFindUserByEmail_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, _, err := repo.FindUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkConfirmed(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, aliceInput())
	require.NoError(t, err)

	require.NoError(t, repo.MarkConfirmed(ctx, id))

	u, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.IsConfirmed)

	assert.ErrorIs(t, repo.MarkConfirmed(ctx, uuid.New()), ErrNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUser_BeginFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := repo.CreateUser(context.Background(), aliceInput())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_RollsBackOnCredentialFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectExec(`INSERT INTO "credentials"`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(), aliceInput())
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail_QueryFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM users AS u`).WillReturnError(errors.New("connection reset"))

	_, _, err := repo.FindUserByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "pq unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "pq other", err: &pq.Error{Code: "23503"}, want: false},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), want: true},
		{name: "plain", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
