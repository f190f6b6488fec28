package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"projecttracker/internal/db"
	"projecttracker/internal/model"
	"projecttracker/pkg/logger"
	"projecttracker/pkg/metrics"
)

type familyStore interface {
	InSerializableTx(ctx context.Context, fn func(q db.Queryer) error) error
	FamilyOf(ctx context.Context, q db.Queryer, projectID int) (*int, error)
	CreateFamily(ctx context.Context, q db.Queryer) (int, error)
	Link(ctx context.Context, q db.Queryer, projectID, familyID int) error
	Unlink(ctx context.Context, q db.Queryer, projectID int) error
	Members(ctx context.Context, q db.Queryer, familyID int) ([]int, error)
	MoveMembers(ctx context.Context, q db.Queryer, fromID, toID int) error
	DeleteFamily(ctx context.Context, q db.Queryer, familyID int) error
}

type familyProjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Project, error)
	GetByIDs(ctx context.Context, ids []int) ([]model.Project, error)
	SisterCandidates(ctx context.Context, p *model.Project) ([]model.Project, error)
}

// FamilyManager maintains the sister-project clustering. The invariants it
// defends: a project belongs to at most one family, and a family never holds
// fewer than two members. All mutations run serializable so concurrent adds
// on overlapping pairs cannot split one cluster into two families.
type FamilyManager struct {
	families familyStore
	projects familyProjectStore
	logger   *zap.Logger
}

func NewFamilyManager(families familyStore, projects familyProjectStore, log *zap.Logger) *FamilyManager {
	return &FamilyManager{
		families: families,
		projects: projects,
		logger:   log,
	}
}

// AddSister links projects a and b into one family. Four cases: no families
// yet (create one, link both), exactly one family (pull the other in), two
// distinct families (merge b's into a's and delete the emptied family), and
// already-shared (no-op). Self-pairing is rejected.
func (m *FamilyManager) AddSister(ctx context.Context, aID, bID int) error {
	if aID == bID {
		return fmt.Errorf("project %d cannot be its own sister: %w", aID, model.ErrInvalidTransition)
	}
	if _, err := m.projects.GetByID(ctx, aID); err != nil {
		return err
	}
	if _, err := m.projects.GetByID(ctx, bID); err != nil {
		return err
	}

	log := logger.WithTrace(ctx, m.logger)

	return m.families.InSerializableTx(ctx, func(q db.Queryer) error {
		fa, err := m.families.FamilyOf(ctx, q, aID)
		if err != nil {
			return err
		}
		fb, err := m.families.FamilyOf(ctx, q, bID)
		if err != nil {
			return err
		}

		switch {
		case fa == nil && fb == nil:
			familyID, err := m.families.CreateFamily(ctx, q)
			if err != nil {
				return err
			}
			if err := m.families.Link(ctx, q, aID, familyID); err != nil {
				return err
			}
			if err := m.families.Link(ctx, q, bID, familyID); err != nil {
				return err
			}
			metrics.RecordFamilyOperation("add")
			log.Info("Sister family created",
				zap.Int("family_id", familyID),
				zap.Int("a", aID),
				zap.Int("b", bID),
			)

		case fa != nil && fb == nil:
			if err := m.families.Link(ctx, q, bID, *fa); err != nil {
				return err
			}
			metrics.RecordFamilyOperation("add")

		case fa == nil && fb != nil:
			if err := m.families.Link(ctx, q, aID, *fb); err != nil {
				return err
			}
			metrics.RecordFamilyOperation("add")

		case *fa == *fb:
			// Already sisters.

		default:
			// Merge: every member of b's family moves to a's, then the
			// emptied family goes away.
			if err := m.families.MoveMembers(ctx, q, *fb, *fa); err != nil {
				return err
			}
			if err := m.families.DeleteFamily(ctx, q, *fb); err != nil {
				return err
			}
			metrics.RecordFamilyOperation("merge")
			log.Info("Sister families merged",
				zap.Int("into", *fa),
				zap.Int("from", *fb),
			)
		}
		return nil
	})
}

// DeleteSister removes the project's own sister link. The operation is
// asymmetric: the rest of the family stays intact unless removing this
// member would leave fewer than two, in which case the family dissolves and
// the remaining member's link is cleared too.
func (m *FamilyManager) DeleteSister(ctx context.Context, projectID int) error {
	if _, err := m.projects.GetByID(ctx, projectID); err != nil {
		return err
	}

	log := logger.WithTrace(ctx, m.logger)

	return m.families.InSerializableTx(ctx, func(q db.Queryer) error {
		familyID, err := m.families.FamilyOf(ctx, q, projectID)
		if err != nil {
			return err
		}
		if familyID == nil {
			return nil
		}

		if err := m.families.Unlink(ctx, q, projectID); err != nil {
			return err
		}

		remaining, err := m.families.Members(ctx, q, *familyID)
		if err != nil {
			return err
		}
		if len(remaining) >= 2 {
			metrics.RecordFamilyOperation("remove")
			return nil
		}

		for _, id := range remaining {
			if err := m.families.Unlink(ctx, q, id); err != nil {
				return err
			}
		}
		if err := m.families.DeleteFamily(ctx, q, *familyID); err != nil {
			return err
		}
		metrics.RecordFamilyOperation("dissolve")
		log.Info("Sister family dissolved",
			zap.Int("family_id", *familyID),
			zap.Int("triggered_by", projectID),
		)
		return nil
	})
}

// GetFamily returns the project's family id, or nil when it has none.
func (m *FamilyManager) GetFamily(ctx context.Context, projectID int) (*int, error) {
	if _, err := m.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return m.families.FamilyOf(ctx, nil, projectID)
}

// HasSister reports whether the project belongs to a family.
func (m *FamilyManager) HasSister(ctx context.Context, projectID int) (bool, error) {
	familyID, err := m.GetFamily(ctx, projectID)
	if err != nil {
		return false, err
	}
	return familyID != nil, nil
}

// GetSisters returns the other members of the project's family, or every
// member including the project itself when includeSelf is set. A project
// with no family has no sisters.
func (m *FamilyManager) GetSisters(ctx context.Context, projectID int, includeSelf bool) ([]model.Project, error) {
	familyID, err := m.GetFamily(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if familyID == nil {
		return nil, nil
	}

	members, err := m.families.Members(ctx, nil, *familyID)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(members))
	for _, id := range members {
		if id == projectID && !includeSelf {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return m.projects.GetByIDs(ctx, ids)
}

// Candidates returns the projects eligible to become the project's sister:
// same type and year, not already in its family, with both sides approved
// and not cancelled. A cancelled or unapproved project has no candidates.
func (m *FamilyManager) Candidates(ctx context.Context, projectID int) ([]model.Project, error) {
	p, err := m.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return m.projects.SisterCandidates(ctx, p)
}
