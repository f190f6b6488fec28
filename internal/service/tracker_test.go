package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type trackerFixture struct {
	tracker    *MilestoneTracker
	messages   *fakeMessageStore
	milestones *fakeMilestoneStore
	projects   *fakeProjectStore
	employees  *fakeEmployeeStore
}

// newTrackerFixture builds a tracker whose transition hook is the real
// notification engine, so message-count assertions exercise the whole
// transition path.
func newTrackerFixture(defs ...model.MilestoneDefinition) *trackerFixture {
	if len(defs) == 0 {
		defs = []model.MilestoneDefinition{
			{ID: 1, Label: model.LabelApproved, Category: model.MilestoneCore, DisplayOrder: 10, Protected: true},
			{ID: 2, Label: model.LabelSignOff, Category: model.MilestoneCore, DisplayOrder: 20, Protected: true},
		}
	}

	employees := seinfeldDirectory()
	projects := newFakeProjectStore(&model.Project{
		ID:      1,
		Code:    "LHA_IA12_111",
		Name:    "Habitat Survey",
		LeadID:  6, // Newman
		DBAID:   2, // George
		OwnerID: 6,
		Type:    "IA",
		Year:    2012,
	})
	milestones := newFakeMilestoneStore(projects, defs...)
	for _, d := range defs {
		if d.Category == model.MilestoneCore {
			milestones.attach(1, d.ID, true)
		}
	}

	messages := &fakeMessageStore{}
	watchers := &fakeWatcherStore{watchers: make(map[int][]int)}
	engine := NewNotificationEngine(
		NewDirectory(employees, zap.NewNop()),
		watchers,
		messages,
		&fakeEventStore{},
		zap.NewNop(),
	)

	return &trackerFixture{
		tracker:    NewMilestoneTracker(projects, milestones, employees, engine.HandleTransition, zap.NewNop()),
		messages:   messages,
		milestones: milestones,
		projects:   projects,
		employees:  employees,
	}
}

func TestTrackerApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("approve flips status to Ongoing", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))

		status, err := f.tracker.Status(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOngoing, status)

		approved, err := f.tracker.IsApproved(ctx, 1)
		require.NoError(t, err)
		assert.True(t, approved)
	})

	t.Run("approving twice produces exactly one message", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))
		require.NoError(t, f.tracker.Approve(ctx, 1))
		assert.Len(t, f.messages.messages, 1)
	})

	t.Run("unapproving a never-approved project is a no-op", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Unapprove(ctx, 1))
		assert.Empty(t, f.messages.messages)
	})

	t.Run("approve then unapprove produces two messages", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))
		require.NoError(t, f.tracker.Unapprove(ctx, 1))

		require.Len(t, f.messages.messages, 2)
		assert.Equal(t, "Approved", f.messages.messages[0].Text)
		assert.Equal(t, "The milestone 'Approved' has been revoked", f.messages.messages[1].Text)

		done, err := f.tracker.MilestoneComplete(ctx, 1, model.LabelApproved)
		require.NoError(t, err)
		require.NotNil(t, done)
		assert.False(t, *done)
	})

	t.Run("missing project surfaces as not found", func(t *testing.T) {
		f := newTrackerFixture()
		err := f.tracker.Approve(ctx, 99)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestTrackerSignOff(t *testing.T) {
	ctx := context.Background()

	t.Run("owner signs off and the project completes", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))

		newman := &model.User{ID: 1, Username: "newman", EmployeeID: intp(6)}
		require.NoError(t, f.tracker.SignOff(ctx, 1, newman))

		status, err := f.tracker.Status(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StatusComplete, status)
	})

	t.Run("unauthorized actor is rejected without a message", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))
		before := len(f.messages.messages)

		elaine := &model.User{ID: 2, Username: "elaine", EmployeeID: intp(4)}
		err := f.tracker.SignOff(ctx, 1, elaine)
		assert.ErrorIs(t, err, model.ErrPermissionDenied)
		assert.Len(t, f.messages.messages, before)
	})

	t.Run("superuser without a directory entry may sign off", func(t *testing.T) {
		f := newTrackerFixture()
		admin := &model.User{ID: 3, Username: "admin", IsSuperuser: true}
		require.NoError(t, f.tracker.SignOff(ctx, 1, admin))
	})

	t.Run("missing Sign off definition is an invalid transition", func(t *testing.T) {
		f := newTrackerFixture(model.MilestoneDefinition{
			ID: 1, Label: model.LabelApproved, Category: model.MilestoneCore, DisplayOrder: 10,
		})
		newman := &model.User{ID: 1, Username: "newman", EmployeeID: intp(6)}
		err := f.tracker.SignOff(ctx, 1, newman)
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("reopen drops the project back to Ongoing", func(t *testing.T) {
		f := newTrackerFixture()
		require.NoError(t, f.tracker.Approve(ctx, 1))

		newman := &model.User{ID: 1, Username: "newman", EmployeeID: intp(6)}
		require.NoError(t, f.tracker.SignOff(ctx, 1, newman))
		require.NoError(t, f.tracker.Reopen(ctx, 1))

		status, err := f.tracker.Status(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StatusOngoing, status)
	})
}

func TestTrackerCancel(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture()

	require.NoError(t, f.tracker.Approve(ctx, 1))
	require.NoError(t, f.tracker.Cancel(ctx, 1))

	status, err := f.tracker.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, status)

	// Cancellation does not touch milestone timestamps.
	done, err := f.tracker.MilestoneComplete(ctx, 1, model.LabelApproved)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.True(t, *done)

	require.NoError(t, f.tracker.Uncancel(ctx, 1))
	status, err = f.tracker.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOngoing, status)
}

func TestTrackerMilestoneComplete(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture()

	t.Run("unknown label is nil, not an error", func(t *testing.T) {
		done, err := f.tracker.MilestoneComplete(ctx, 1, "No Such Milestone")
		require.NoError(t, err)
		assert.Nil(t, done)
	})

	t.Run("attached but incomplete is false", func(t *testing.T) {
		done, err := f.tracker.MilestoneComplete(ctx, 1, model.LabelSignOff)
		require.NoError(t, err)
		require.NotNil(t, done)
		assert.False(t, *done)
	})
}

func TestTrackerAttachAndStatusDict(t *testing.T) {
	ctx := context.Background()
	f := newTrackerFixture(
		model.MilestoneDefinition{ID: 1, Label: model.LabelApproved, Category: model.MilestoneCore, DisplayOrder: 10},
		model.MilestoneDefinition{ID: 2, Label: model.LabelSignOff, Category: model.MilestoneCore, DisplayOrder: 20},
		model.MilestoneDefinition{ID: 3, Label: "Interim Report", Category: model.MilestoneCustom, IsReport: true, DisplayOrder: 30},
	)

	require.NoError(t, f.tracker.AttachMilestone(ctx, 1, 3, true))

	dict, err := f.tracker.StatusDict(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, dict)

	bucket := dict[len(dict)-1]
	assert.Equal(t, model.CustomBucketKey, bucket.Key)
	assert.Equal(t, model.StatusRequiredNotDone, bucket.Status)

	t.Run("attaching an unknown definition fails", func(t *testing.T) {
		err := f.tracker.AttachMilestone(ctx, 1, 99, true)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
