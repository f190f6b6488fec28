package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/db"
	"projecttracker/internal/model"
)

type FamilyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFamilyRepository(pool *pgxpool.Pool, logger *zap.Logger) *FamilyRepository {
	return &FamilyRepository{
		db:     pool,
		logger: logger,
	}
}

// InSerializableTx runs fn inside a serializable transaction. Family merges
// read two families and rewrite links; anything weaker can interleave with a
// concurrent add_sister and orphan or duplicate a family.
func (r *FamilyRepository) InSerializableTx(ctx context.Context, fn func(q db.Queryer) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin serializable tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (r *FamilyRepository) conn(q db.Queryer) db.Queryer {
	if q == nil {
		return r.db
	}
	return q
}

// FamilyOf returns the project's family id, or nil if it has none. Finding
// more than one link is data corruption and surfaces as a ConsistencyError.
func (r *FamilyRepository) FamilyOf(ctx context.Context, q db.Queryer, projectID int) (*int, error) {
	rows, err := r.conn(q).Query(ctx, `
        SELECT family_id FROM sister_links WHERE project_id = $1
    `, projectID)
	if err != nil {
		r.logger.Error("Failed to query sister link", zap.Int("project_id", projectID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var familyIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		familyIDs = append(familyIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	familyID, err := singleFamily(projectID, familyIDs)
	if err != nil {
		r.logger.Error("Sister link corruption detected", zap.Int("project_id", projectID), zap.Error(err))
	}
	return familyID, err
}

// singleFamily reduces a project's link rows to its one family id. Zero links
// means no family; more than one is corruption.
func singleFamily(projectID int, familyIDs []int) (*int, error) {
	switch len(familyIDs) {
	case 0:
		return nil, nil
	case 1:
		return &familyIDs[0], nil
	default:
		return nil, model.NewConsistencyError("project %d linked to %d families", projectID, len(familyIDs))
	}
}

func (r *FamilyRepository) CreateFamily(ctx context.Context, q db.Queryer) (int, error) {
	var id int
	err := r.conn(q).QueryRow(ctx, `
        INSERT INTO families DEFAULT VALUES RETURNING id
    `).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create family", zap.Error(err))
		return 0, err
	}
	return id, nil
}

func (r *FamilyRepository) Link(ctx context.Context, q db.Queryer, projectID, familyID int) error {
	_, err := r.conn(q).Exec(ctx, `
        INSERT INTO sister_links (project_id, family_id) VALUES ($1, $2)
    `, projectID, familyID)
	if err != nil {
		r.logger.Error("Failed to link project to family",
			zap.Int("project_id", projectID),
			zap.Int("family_id", familyID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *FamilyRepository) Unlink(ctx context.Context, q db.Queryer, projectID int) error {
	_, err := r.conn(q).Exec(ctx, `
        DELETE FROM sister_links WHERE project_id = $1
    `, projectID)
	if err != nil {
		r.logger.Error("Failed to unlink project", zap.Int("project_id", projectID), zap.Error(err))
		return err
	}
	return nil
}

func (r *FamilyRepository) Members(ctx context.Context, q db.Queryer, familyID int) ([]int, error) {
	rows, err := r.conn(q).Query(ctx, `
        SELECT project_id FROM sister_links WHERE family_id = $1 ORDER BY project_id ASC
    `, familyID)
	if err != nil {
		r.logger.Error("Failed to query family members", zap.Int("family_id", familyID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var members []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// MoveMembers re-points every link from one family to another (merge step).
func (r *FamilyRepository) MoveMembers(ctx context.Context, q db.Queryer, fromID, toID int) error {
	_, err := r.conn(q).Exec(ctx, `
        UPDATE sister_links SET family_id = $1 WHERE family_id = $2
    `, toID, fromID)
	if err != nil {
		r.logger.Error("Failed to move family members",
			zap.Int("from", fromID),
			zap.Int("to", toID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *FamilyRepository) DeleteFamily(ctx context.Context, q db.Queryer, familyID int) error {
	_, err := r.conn(q).Exec(ctx, `
        DELETE FROM families WHERE id = $1
    `, familyID)
	if err != nil {
		r.logger.Error("Failed to delete family", zap.Int("family_id", familyID), zap.Error(err))
		return err
	}
	return nil
}
