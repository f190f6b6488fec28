package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type WatcherRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWatcherRepository(db *pgxpool.Pool, logger *zap.Logger) *WatcherRepository {
	return &WatcherRepository{
		db:     db,
		logger: logger,
	}
}

// Watchers returns the employees who bookmarked the project, oldest bookmark
// first.
func (r *WatcherRepository) Watchers(ctx context.Context, projectID int) ([]int, error) {
	rows, err := r.db.Query(ctx, `
        SELECT employee_id FROM project_watchers
        WHERE project_id = $1
        ORDER BY created_at ASC
    `, projectID)
	if err != nil {
		r.logger.Error("Failed to query watchers", zap.Int("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var watchers []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		watchers = append(watchers, id)
	}
	return watchers, rows.Err()
}

func (r *WatcherRepository) Watch(ctx context.Context, projectID, employeeID int) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO project_watchers (project_id, employee_id)
        VALUES ($1, $2)
        ON CONFLICT (project_id, employee_id) DO NOTHING
    `, projectID, employeeID)
	if err != nil {
		r.logger.Error("Failed to add watcher",
			zap.Int("project_id", projectID),
			zap.Int("employee_id", employeeID),
			zap.Error(err),
		)
	}
	return err
}

func (r *WatcherRepository) Unwatch(ctx context.Context, projectID, employeeID int) error {
	_, err := r.db.Exec(ctx, `
        DELETE FROM project_watchers
        WHERE project_id = $1 AND employee_id = $2
    `, projectID, employeeID)
	if err != nil {
		r.logger.Error("Failed to remove watcher",
			zap.Int("project_id", projectID),
			zap.Int("employee_id", employeeID),
			zap.Error(err),
		)
	}
	return err
}
