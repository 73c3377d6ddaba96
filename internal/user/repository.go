package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/teamtasks/internal/database"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrStoreUnavailable = errors.New("user store unavailable")
)

const pqUniqueViolation = "23505"

// Repository handles user and credential persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts the user and its credential in one transaction and
// returns the new user id. Nothing is persisted when either insert fails.
func (r *Repository) CreateUser(ctx context.Context, nu NewUser) (uuid.UUID, error) {
	dbUser := &database.User{
		ID:       uuid.New(),
		Username: nu.Username,
		Email:    nu.Email,
	}
	if nu.Avatar != "" {
		dbUser.Avatar = &nu.Avatar
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(dbUser).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		dbCredential := &database.Credential{
			ID:             uuid.New(),
			UserID:         dbUser.ID,
			Email:          nu.Email,
			HashedPassword: nu.HashedPassword,
		}
		if _, err := tx.NewInsert().Model(dbCredential).Exec(ctx); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrDuplicateUser
		}
		return uuid.Nil, fmt.Errorf("%w: create user: %w", ErrStoreUnavailable, err)
	}

	return dbUser.ID, nil
}

// FindUserByEmail reads a user together with its credential, matching on
// the credential email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, *Credential, error) {
	var (
		u      User
		c      Credential
		avatar sql.NullString
	)

	err := r.db.NewSelect().
		ColumnExpr("u.id, u.username, u.email, u.avatar, u.is_confirmed").
		ColumnExpr("c.id, c.user_id, c.email, c.hashed_password").
		TableExpr("users AS u").
		Join("JOIN credentials AS c ON c.user_id = u.id").
		Where("c.email = ?", email).
		Limit(1).
		Scan(ctx, &u.ID, &u.Username, &u.Email, &avatar, &u.IsConfirmed,
			&c.ID, &c.UserID, &c.Email, &c.HashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: find user by email: %w", ErrStoreUnavailable, err)
	}
	if u.ID == uuid.Nil {
		return nil, nil, ErrNotFound
	}

	if avatar.Valid {
		u.Avatar = &avatar.String
	}

	return &u, &c, nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user by id: %w", ErrStoreUnavailable, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkConfirmed sets the confirmation flag on a user
func (r *Repository) MarkConfirmed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_confirmed = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: mark confirmed: %w", ErrStoreUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", ErrStoreUnavailable, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// isUniqueViolation recognises unique constraint failures from PostgreSQL
// (SQLSTATE 23505) and SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:          dbu.ID,
		Username:    dbu.Username,
		Email:       dbu.Email,
		Avatar:      dbu.Avatar,
		IsConfirmed: dbu.IsConfirmed,
	}
}
