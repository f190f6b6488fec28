package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecttracker/internal/db"
	"projecttracker/internal/model"
)

func newFamilyFixture() (*FamilyManager, *fakeFamilyStore, *fakeProjectStore) {
	projects := newFakeProjectStore(
		&model.Project{ID: 1, Code: "LHA_IA12_111", Name: "Habitat A", Type: "IA", Year: 2012},
		&model.Project{ID: 2, Code: "LHA_IA12_222", Name: "Habitat B", Type: "IA", Year: 2012},
		&model.Project{ID: 3, Code: "LHA_IA12_333", Name: "Habitat C", Type: "IA", Year: 2012},
		&model.Project{ID: 4, Code: "LHA_IA12_444", Name: "Habitat D", Type: "IA", Year: 2012},
	)
	families := newFakeFamilyStore()
	return NewFamilyManager(families, projects, zap.NewNop()), families, projects
}

// memberIDs extracts project ids from GetSisters output.
func memberIDs(projects []model.Project) []int {
	ids := make([]int, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

// assertFamilySizes fails if any family holds fewer than two members.
func assertFamilySizes(t *testing.T, families *fakeFamilyStore) {
	t.Helper()
	counts := make(map[int]int)
	for _, fid := range families.links {
		counts[fid]++
	}
	for fid := range families.families {
		assert.GreaterOrEqualf(t, counts[fid], 2, "family %d below minimum size", fid)
	}
	for fid := range counts {
		assert.Truef(t, families.families[fid], "dangling link to deleted family %d", fid)
	}
}

func TestAddSister(t *testing.T) {
	ctx := context.Background()

	t.Run("two loose projects form a new family", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))

		has, err := m.HasSister(ctx, 1)
		require.NoError(t, err)
		assert.True(t, has)

		sisters, err := m.GetSisters(ctx, 1, false)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, memberIDs(sisters))
		assertFamilySizes(t, families)
	})

	t.Run("loose project joins an existing family", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))
		require.NoError(t, m.AddSister(ctx, 1, 3))

		sisters, err := m.GetSisters(ctx, 3, true)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, memberIDs(sisters))
		assertFamilySizes(t, families)
	})

	t.Run("existing family absorbs a loose project named first", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 2, 3))
		require.NoError(t, m.AddSister(ctx, 1, 2))

		fam1, err := m.GetFamily(ctx, 1)
		require.NoError(t, err)
		fam3, err := m.GetFamily(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, fam1)
		require.NotNil(t, fam3)
		assert.Equal(t, *fam3, *fam1)
		assertFamilySizes(t, families)
	})

	t.Run("adding an existing sister pair is a no-op", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))
		before := *mustFamily(t, m, 1)

		require.NoError(t, m.AddSister(ctx, 2, 1))
		assert.Equal(t, before, *mustFamily(t, m, 1))
		assert.Len(t, families.families, 1)
	})

	t.Run("two families merge into one", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))
		require.NoError(t, m.AddSister(ctx, 3, 4))
		require.NoError(t, m.AddSister(ctx, 1, 3))

		sisters, err := m.GetSisters(ctx, 1, true)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, memberIDs(sisters))
		assert.Len(t, families.families, 1)
		assertFamilySizes(t, families)
	})

	t.Run("self-pairing is rejected", func(t *testing.T) {
		m, _, _ := newFamilyFixture()
		err := m.AddSister(ctx, 1, 1)
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("unknown project is rejected", func(t *testing.T) {
		m, _, _ := newFamilyFixture()
		err := m.AddSister(ctx, 1, 99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func mustFamily(t *testing.T, m *FamilyManager, projectID int) *int {
	t.Helper()
	id, err := m.GetFamily(context.Background(), projectID)
	require.NoError(t, err)
	require.NotNil(t, id)
	return id
}

func TestDeleteSister(t *testing.T) {
	ctx := context.Background()

	t.Run("leaving a three-member family keeps the rest intact", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))
		require.NoError(t, m.AddSister(ctx, 1, 3))

		require.NoError(t, m.DeleteSister(ctx, 1))

		has, err := m.HasSister(ctx, 1)
		require.NoError(t, err)
		assert.False(t, has)

		sisters, err := m.GetSisters(ctx, 2, true)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, memberIDs(sisters))
		assertFamilySizes(t, families)
	})

	t.Run("leaving a two-member family dissolves it", func(t *testing.T) {
		m, families, _ := newFamilyFixture()
		require.NoError(t, m.AddSister(ctx, 1, 2))
		require.NoError(t, m.DeleteSister(ctx, 1))

		for _, id := range []int{1, 2} {
			has, err := m.HasSister(ctx, id)
			require.NoError(t, err)
			assert.False(t, has, "project %d should be loose", id)
		}
		assert.Empty(t, families.families)
		assert.Empty(t, families.links)
	})

	t.Run("removing a project with no family is a no-op", func(t *testing.T) {
		m, _, _ := newFamilyFixture()
		assert.NoError(t, m.DeleteSister(ctx, 1))
	})
}

func TestGetSisters(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newFamilyFixture()

	t.Run("loose project has no sisters", func(t *testing.T) {
		sisters, err := m.GetSisters(ctx, 1, false)
		require.NoError(t, err)
		assert.Empty(t, sisters)

		sisters, err = m.GetSisters(ctx, 1, true)
		require.NoError(t, err)
		assert.Empty(t, sisters)
	})

	require.NoError(t, m.AddSister(ctx, 1, 2))

	t.Run("includeSelf toggles the project's own row", func(t *testing.T) {
		sisters, err := m.GetSisters(ctx, 1, false)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, memberIDs(sisters))

		sisters, err = m.GetSisters(ctx, 1, true)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, memberIDs(sisters))
	})
}

func TestSisterCandidates(t *testing.T) {
	ctx := context.Background()
	m, _, projects := newFamilyFixture()

	// Projects 1-3 are approved; 4 is not. 5 is a different vintage, 6 is
	// cancelled, both approved so only those dimensions disqualify them.
	projects.projects[5] = &model.Project{ID: 5, Code: "LHA_IA13_555", Type: "IA", Year: 2013}
	projects.projects[6] = &model.Project{ID: 6, Code: "LHA_IA12_666", Type: "IA", Year: 2012, Cancelled: true}
	for _, id := range []int{1, 2, 3, 5, 6} {
		projects.approve(id)
	}

	t.Run("same-vintage approved active partners qualify", func(t *testing.T) {
		candidates, err := m.Candidates(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, memberIDs(candidates))
	})

	t.Run("unapproved partner is excluded", func(t *testing.T) {
		candidates, err := m.Candidates(ctx, 2)
		require.NoError(t, err)
		assert.NotContains(t, memberIDs(candidates), 4)
	})

	t.Run("unapproved project has no candidates", func(t *testing.T) {
		candidates, err := m.Candidates(ctx, 4)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("cancelled project has no candidates", func(t *testing.T) {
		candidates, err := m.Candidates(ctx, 6)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

// corruptFamilyStore simulates a project linked to two families at once.
type corruptFamilyStore struct {
	*fakeFamilyStore
}

func (s *corruptFamilyStore) FamilyOf(_ context.Context, _ db.Queryer, projectID int) (*int, error) {
	return nil, model.NewConsistencyError("project %d linked to 2 families", projectID)
}

func TestFamilyConsistencyViolationPropagates(t *testing.T) {
	ctx := context.Background()
	projects := newFakeProjectStore(
		&model.Project{ID: 1, Code: "LHA_IA12_111", Type: "IA", Year: 2012},
		&model.Project{ID: 2, Code: "LHA_IA12_222", Type: "IA", Year: 2012},
	)
	m := NewFamilyManager(&corruptFamilyStore{newFakeFamilyStore()}, projects, zap.NewNop())

	var consistency *model.ConsistencyError

	_, err := m.GetFamily(ctx, 1)
	require.Error(t, err)
	assert.ErrorAs(t, err, &consistency)

	err = m.AddSister(ctx, 1, 2)
	require.Error(t, err)
	assert.ErrorAs(t, err, &consistency)
}
