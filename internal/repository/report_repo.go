package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type ReportRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReportRepository(db *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// InsertWithMilestones registers an uploaded report and associates it with
// every given (project, definition) milestone pair in one transaction. One
// physical report can satisfy the same milestone across sister projects.
func (r *ReportRepository) InsertWithMilestones(ctx context.Context, rep *model.Report, pairs [][2]int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO reports (storage_key, path, hash, uploaded_by_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, uploaded_at
    `, rep.StorageKey, rep.Path, rep.Hash, rep.UploadedByID).Scan(&rep.ID, &rep.UploadedAt)
	if err != nil {
		r.logger.Error("Failed to insert report", zap.String("path", rep.Path), zap.Error(err))
		return err
	}

	for _, pair := range pairs {
		projectID, definitionID := pair[0], pair[1]

		var pmID int
		err = tx.QueryRow(ctx, `
            SELECT id FROM project_milestones
            WHERE project_id = $1 AND definition_id = $2
        `, projectID, definitionID).Scan(&pmID)
		if err != nil {
			return fmt.Errorf("milestone (project %d, definition %d): %w",
				projectID, definitionID, model.ErrNotFound)
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO report_milestones (report_id, project_milestone_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, rep.ID, pmID)
		if err != nil {
			r.logger.Error("Failed to associate report", zap.Int("report_id", rep.ID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Report registered",
		zap.Int("id", rep.ID),
		zap.String("hash", rep.Hash),
		zap.Int("milestones", len(pairs)),
	)
	return nil
}

// FulfilledDefinitionIDs returns the milestone definition ids that have at
// least one report attached for any of the given projects. Callers pass the
// whole sister family to get family-wide fulfillment.
func (r *ReportRepository) FulfilledDefinitionIDs(ctx context.Context, projectIDs []int) (map[int]bool, error) {
	if len(projectIDs) == 0 {
		return map[int]bool{}, nil
	}

	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT pm.definition_id
        FROM report_milestones rm
        JOIN project_milestones pm ON pm.id = rm.project_milestone_id
        WHERE pm.project_id = ANY($1)
    `, projectIDs)
	if err != nil {
		r.logger.Error("Failed to query fulfilled definitions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	fulfilled := make(map[int]bool)
	for rows.Next() {
		var defID int
		if err := rows.Scan(&defID); err != nil {
			return nil, err
		}
		fulfilled[defID] = true
	}
	return fulfilled, rows.Err()
}
