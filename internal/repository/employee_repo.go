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

type EmployeeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEmployeeRepository(db *pgxpool.Pool, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *EmployeeRepository) Insert(ctx context.Context, e *model.Employee) (int, error) {
	query := `
        INSERT INTO employees (name, supervisor_id, role)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query, e.Name, e.SupervisorID, e.Role).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert employee", zap.Error(err))
		return 0, err
	}
	return id, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, id int) (*model.Employee, error) {
	query := `
        SELECT id, name, supervisor_id, role
        FROM employees
        WHERE id = $1
    `
	var e model.Employee
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.SupervisorID, &e.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("employee %d: %w", id, model.ErrNotFound)
		}
		r.logger.Error("Failed to get employee", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) DirectReports(ctx context.Context, id int) ([]model.Employee, error) {
	query := `
        SELECT id, name, supervisor_id, role
        FROM employees
        WHERE supervisor_id = $1
        ORDER BY name ASC
    `
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to query direct reports", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reports []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.SupervisorID, &e.Role); err != nil {
			return nil, err
		}
		reports = append(reports, e)
	}
	return reports, rows.Err()
}
