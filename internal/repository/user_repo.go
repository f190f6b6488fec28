package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *model.User) (int, error) {
	query := `
        INSERT INTO users (username, password_hash, is_superuser, employee_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		u.Username,
		u.PasswordHash,
		u.IsSuperuser,
		u.EmployeeID,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert user", zap.String("username", u.Username), zap.Error(err))
		return 0, err
	}
	return u.ID, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `
        SELECT id, username, password_hash, is_superuser, employee_id, created_at
        FROM users ` + where

	var u model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.IsSuperuser,
		&u.EmployeeID,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", model.ErrNotFound)
		}
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
