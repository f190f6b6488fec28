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

const projectColumns = `id, code, name, lead_id, dba_id, owner_id, lake, type, year, cancelled, active, created_at, updated_at`

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// CreateWithCoreMilestones inserts the project and one ProjectMilestone row
// per currently-defined core milestone, in one transaction.
func (r *ProjectRepository) CreateWithCoreMilestones(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("code", p.Code),
		zap.Int("owner_id", p.OwnerID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO projects (code, name, lead_id, dba_id, owner_id, lake, type, year, cancelled, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, true)
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		p.Code,
		p.Name,
		p.LeadID,
		p.DBAID,
		p.OwnerID,
		p.Lake,
		p.Type,
		p.Year,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.String("code", p.Code), zap.Error(err))
		return err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO project_milestones (project_id, definition_id, required)
        SELECT $1, d.id, true
        FROM milestone_definitions d
        WHERE d.category = $2
    `, p.ID, model.MilestoneCore)
	if err != nil {
		r.logger.Error("Failed to attach core milestones", zap.Int("project_id", p.ID), zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Project created",
		zap.Int("id", p.ID),
		zap.String("code", p.Code),
	)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	return r.get(ctx, `WHERE code = $1`, code)
}

func (r *ProjectRepository) get(ctx context.Context, where string, arg any) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ` + where

	var p model.Project
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Code, &p.Name, &p.LeadID, &p.DBAID, &p.OwnerID,
		&p.Lake, &p.Type, &p.Year, &p.Cancelled, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("project: %w", model.ErrNotFound)
		}
		r.logger.Error("Failed to get project", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

// SetCancelled flips the cancelled flag. Milestone timestamps are untouched.
func (r *ProjectRepository) SetCancelled(ctx context.Context, projectID int, cancelled bool) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE projects
        SET cancelled = $1, updated_at = NOW()
        WHERE id = $2
    `, cancelled, projectID)
	if err != nil {
		r.logger.Error("Failed to set cancelled flag",
			zap.Int("project_id", projectID),
			zap.Bool("cancelled", cancelled),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", projectID, model.ErrNotFound)
	}
	return nil
}

// SisterCandidates returns projects of the same type and year that could
// pair with p. Candidacy is symmetric: both p and the partner must be
// approved and not cancelled, and the partner must not already share p's
// family. A cancelled or unapproved p therefore has no candidates.
func (r *ProjectRepository) SisterCandidates(ctx context.Context, p *model.Project) ([]model.Project, error) {
	if p.Cancelled {
		return nil, nil
	}
	query := `
        SELECT ` + qualifiedProjectColumns("p2") + `
        FROM projects p2
        JOIN project_milestones pm ON pm.project_id = p2.id
        JOIN milestone_definitions d ON d.id = pm.definition_id AND d.label = $1
        WHERE p2.type = $2
          AND p2.year = $3
          AND p2.id <> $4
          AND NOT p2.cancelled
          AND pm.completed IS NOT NULL
          AND EXISTS (
              SELECT 1
              FROM project_milestones spm
              JOIN milestone_definitions sd ON sd.id = spm.definition_id AND sd.label = $1
              WHERE spm.project_id = $4 AND spm.completed IS NOT NULL
          )
          AND NOT EXISTS (
              SELECT 1
              FROM sister_links sl1
              JOIN sister_links sl2 ON sl2.family_id = sl1.family_id
              WHERE sl1.project_id = $4 AND sl2.project_id = p2.id
          )
        ORDER BY p2.code ASC
    `
	rows, err := r.db.Query(ctx, query, model.LabelApproved, p.Type, p.Year, p.ID)
	if err != nil {
		r.logger.Error("Failed to query sister candidates", zap.Int("project_id", p.ID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanProjects(rows)
}

// GetByIDs returns the projects for the given ids, ordered by code.
func (r *ProjectRepository) GetByIDs(ctx context.Context, ids []int) ([]model.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1) ORDER BY code ASC`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to query projects by ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanProjects(rows)
}

func qualifiedProjectColumns(alias string) string {
	return alias + `.id, ` + alias + `.code, ` + alias + `.name, ` + alias + `.lead_id, ` +
		alias + `.dba_id, ` + alias + `.owner_id, ` + alias + `.lake, ` + alias + `.type, ` +
		alias + `.year, ` + alias + `.cancelled, ` + alias + `.active, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

func scanProjects(rows pgx.Rows) ([]model.Project, error) {
	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.LeadID, &p.DBAID, &p.OwnerID,
			&p.Lake, &p.Type, &p.Year, &p.Cancelled, &p.Active,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
