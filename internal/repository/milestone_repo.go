package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/model"
	"projecttracker/pkg/metrics"
)

// TransitionHook runs inside the transaction that flips a milestone, so
// whatever it writes commits or fails together with the milestone itself.
type TransitionHook func(ctx context.Context, tx pgx.Tx, tr *model.MilestoneTransition) error

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MilestoneRepository) InsertDefinition(ctx context.Context, d *model.MilestoneDefinition) (int, error) {
	query := `
        INSERT INTO milestone_definitions (label, category, is_report, display_order, protected)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		d.Label,
		d.Category,
		d.IsReport,
		d.DisplayOrder,
		d.Protected,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert milestone definition", zap.String("label", d.Label), zap.Error(err))
		return 0, err
	}
	return id, nil
}

// DeleteDefinition removes an unprotected definition. Protected definitions
// are the lifecycle anchors and cannot be removed through this path.
func (r *MilestoneRepository) DeleteDefinition(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `
        DELETE FROM milestone_definitions
        WHERE id = $1 AND NOT protected
    `, id)
	if err != nil {
		r.logger.Error("Failed to delete milestone definition", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("definition %d missing or protected: %w", id, model.ErrInvalidTransition)
	}
	return nil
}

func (r *MilestoneRepository) DefinitionByID(ctx context.Context, id int) (*model.MilestoneDefinition, error) {
	return r.definition(ctx, `WHERE id = $1`, id)
}

func (r *MilestoneRepository) DefinitionByLabel(ctx context.Context, label string) (*model.MilestoneDefinition, error) {
	return r.definition(ctx, `WHERE label = $1`, label)
}

func (r *MilestoneRepository) definition(ctx context.Context, where string, arg any) (*model.MilestoneDefinition, error) {
	query := `
        SELECT id, label, category, is_report, display_order, protected
        FROM milestone_definitions ` + where

	var d model.MilestoneDefinition
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&d.ID, &d.Label, &d.Category, &d.IsReport, &d.DisplayOrder, &d.Protected,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("milestone definition: %w", model.ErrNotFound)
		}
		r.logger.Error("Failed to get milestone definition", zap.Error(err))
		return nil, err
	}
	return &d, nil
}

func (r *MilestoneRepository) ListDefinitions(ctx context.Context) ([]model.MilestoneDefinition, error) {
	query := `
        SELECT id, label, category, is_report, display_order, protected
        FROM milestone_definitions
        ORDER BY display_order ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list milestone definitions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var defs []model.MilestoneDefinition
	for rows.Next() {
		var d model.MilestoneDefinition
		if err := rows.Scan(&d.ID, &d.Label, &d.Category, &d.IsReport, &d.DisplayOrder, &d.Protected); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// Attach opts a project into a custom milestone or report definition.
func (r *MilestoneRepository) Attach(ctx context.Context, projectID, definitionID int, required bool) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO project_milestones (project_id, definition_id, required)
        VALUES ($1, $2, $3)
        ON CONFLICT (project_id, definition_id) DO NOTHING
    `, projectID, definitionID, required)
	if err != nil {
		r.logger.Error("Failed to attach milestone",
			zap.Int("project_id", projectID),
			zap.Int("definition_id", definitionID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *MilestoneRepository) ListForProject(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	start := time.Now()
	query := `
        SELECT pm.id, pm.project_id, pm.definition_id, pm.required, pm.completed,
               d.id, d.label, d.category, d.is_report, d.display_order, d.protected
        FROM project_milestones pm
        JOIN milestone_definitions d ON d.id = pm.definition_id
        WHERE pm.project_id = $1
        ORDER BY d.display_order ASC
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list project milestones", zap.Int("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	details, err := scanMilestoneDetails(rows)
	metrics.RecordDBQueryDuration("list", "project_milestones", time.Since(start))
	return details, err
}

// ListRequiredReports returns the project's required report-type milestones.
func (r *MilestoneRepository) ListRequiredReports(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	query := `
        SELECT pm.id, pm.project_id, pm.definition_id, pm.required, pm.completed,
               d.id, d.label, d.category, d.is_report, d.display_order, d.protected
        FROM project_milestones pm
        JOIN milestone_definitions d ON d.id = pm.definition_id
        WHERE pm.project_id = $1 AND pm.required AND d.is_report
        ORDER BY d.display_order ASC
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list required reports", zap.Int("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanMilestoneDetails(rows)
}

// SetCompleted flips the Completed field of a (project, definition) milestone
// under a row lock, classifies the transition by comparing the prior value,
// and runs hook within the same transaction before committing. When the flip
// is a no-op (already completed, or already clear) nothing is written, no
// hook runs, and changed is false.
//
// Returns model.ErrNotFound when the definition was never attached to the
// project.
func (r *MilestoneRepository) SetCompleted(
	ctx context.Context,
	projectID int,
	definitionID int,
	completed *time.Time,
	hook TransitionHook,
) (*model.MilestoneTransition, bool, error) {
	start := time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var p model.Project
	err = tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID).Scan(
		&p.ID, &p.Code, &p.Name, &p.LeadID, &p.DBAID, &p.OwnerID,
		&p.Lake, &p.Type, &p.Year, &p.Cancelled, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("project %d: %w", projectID, model.ErrNotFound)
		}
		return nil, false, err
	}

	var d model.MilestoneDefinition
	err = tx.QueryRow(ctx, `
        SELECT id, label, category, is_report, display_order, protected
        FROM milestone_definitions WHERE id = $1
    `, definitionID).Scan(&d.ID, &d.Label, &d.Category, &d.IsReport, &d.DisplayOrder, &d.Protected)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("definition %d: %w", definitionID, model.ErrNotFound)
		}
		return nil, false, err
	}

	// Lock the row so the transition is computed against whichever prior
	// value actually committed, not a stale read.
	var pm model.ProjectMilestone
	err = tx.QueryRow(ctx, `
        SELECT id, project_id, definition_id, required, completed
        FROM project_milestones
        WHERE project_id = $1 AND definition_id = $2
        FOR UPDATE
    `, projectID, definitionID).Scan(&pm.ID, &pm.ProjectID, &pm.DefinitionID, &pm.Required, &pm.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("milestone %q not attached to project %d: %w",
				d.Label, projectID, model.ErrNotFound)
		}
		return nil, false, err
	}

	previous := pm.Completed
	if (previous == nil) == (completed == nil) {
		// Same state either way: silent no-op, no notification.
		return &model.MilestoneTransition{
			Project:    &p,
			Definition: &d,
			Milestone:  &pm,
			Previous:   previous,
		}, false, nil
	}

	_, err = tx.Exec(ctx, `
        UPDATE project_milestones SET completed = $1 WHERE id = $2
    `, completed, pm.ID)
	if err != nil {
		r.logger.Error("Failed to update milestone",
			zap.Int("project_id", projectID),
			zap.String("label", d.Label),
			zap.Error(err),
		)
		return nil, false, err
	}
	pm.Completed = completed

	kind := model.TransitionSatisfied
	if completed == nil {
		kind = model.TransitionRevoked
	}
	tr := &model.MilestoneTransition{
		Project:    &p,
		Definition: &d,
		Milestone:  &pm,
		Kind:       kind,
		Previous:   previous,
	}

	if hook != nil {
		if err := hook(ctx, tx, tr); err != nil {
			return nil, false, fmt.Errorf("transition hook: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit: %w", err)
	}

	metrics.RecordDBQueryDuration("set_completed", "project_milestones", time.Since(start))
	r.logger.Info("Milestone transition committed",
		zap.Int("project_id", projectID),
		zap.String("label", d.Label),
		zap.String("kind", string(kind)),
	)
	return tr, true, nil
}

func scanMilestoneDetails(rows pgx.Rows) ([]model.ProjectMilestoneDetail, error) {
	var details []model.ProjectMilestoneDetail
	for rows.Next() {
		var m model.ProjectMilestoneDetail
		if err := rows.Scan(
			&m.ID, &m.ProjectID, &m.DefinitionID, &m.Required, &m.Completed,
			&m.Definition.ID, &m.Definition.Label, &m.Definition.Category,
			&m.Definition.IsReport, &m.Definition.DisplayOrder, &m.Definition.Protected,
		); err != nil {
			return nil, err
		}
		details = append(details, m)
	}
	return details, rows.Err()
}
