package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detail(id int, label string, category MilestoneCategory, isReport bool, order int, required bool, done bool) ProjectMilestoneDetail {
	var completed *time.Time
	if done {
		now := time.Now()
		completed = &now
	}
	return ProjectMilestoneDetail{
		ProjectMilestone: ProjectMilestone{
			ID:           id,
			ProjectID:    1,
			DefinitionID: id,
			Required:     required,
			Completed:    completed,
		},
		Definition: MilestoneDefinition{
			ID:           id,
			Label:        label,
			Category:     category,
			IsReport:     isReport,
			DisplayOrder: order,
		},
	}
}

func TestBuildStatusDict(t *testing.T) {
	t.Run("entries follow display order with custom bucket last", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(2, "Sign off", MilestoneCore, false, 20, true, false),
			detail(1, "Approved", MilestoneCore, false, 10, true, true),
		})
		require.Len(t, dict, 3)
		assert.Equal(t, "Approved", dict[0].Key)
		assert.Equal(t, StatusRequiredDone, dict[0].Status)
		assert.Equal(t, "Sign off", dict[1].Key)
		assert.Equal(t, StatusRequiredNotDone, dict[1].Status)
		assert.Equal(t, CustomBucketKey, dict[2].Key)
	})

	t.Run("custom report milestones fold into the bucket", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(1, "Approved", MilestoneCore, false, 10, true, true),
			detail(2, "Field Work", MilestoneCore, false, 20, true, false),
			detail(3, "Interim Report", MilestoneCustom, true, 30, true, false),
			detail(4, "Final Report", MilestoneCustom, true, 40, true, false),
		})

		require.Len(t, dict, 3)
		for _, e := range dict {
			assert.NotEqual(t, "Interim Report", e.Key)
			assert.NotEqual(t, "Final Report", e.Key)
		}

		bucket := dict[len(dict)-1]
		assert.Equal(t, CustomBucketKey, bucket.Key)
		assert.Equal(t, EntryTypeReport, bucket.Type)
		assert.Equal(t, StatusRequiredNotDone, bucket.Status)
	})

	t.Run("bucket flips to required-done once every custom report is required and done", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(1, "Approved", MilestoneCore, false, 10, true, true),
			detail(3, "Interim Report", MilestoneCustom, true, 30, true, true),
			detail(4, "Final Report", MilestoneCustom, true, 40, true, true),
		})
		bucket := dict[len(dict)-1]
		assert.Equal(t, StatusRequiredDone, bucket.Status)
	})

	t.Run("bucket with a non-required custom report never reads required-done", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(3, "Interim Report", MilestoneCustom, true, 30, true, true),
			detail(4, "Optional Report", MilestoneCustom, true, 40, false, true),
		})
		bucket := dict[len(dict)-1]
		assert.Equal(t, StatusRequiredNotDone, bucket.Status)
	})

	t.Run("no custom reports yields a notRequired bucket", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(1, "Approved", MilestoneCore, false, 10, true, false),
		})
		bucket := dict[len(dict)-1]
		assert.Equal(t, StatusNotRequiredNotDone, bucket.Status)
	})

	t.Run("core report milestones keep their own entry", func(t *testing.T) {
		dict := BuildStatusDict([]ProjectMilestoneDetail{
			detail(5, "Summary Report", MilestoneCore, true, 50, true, false),
		})
		require.Len(t, dict, 2)
		assert.Equal(t, "Summary Report", dict[0].Key)
		assert.Equal(t, EntryTypeReport, dict[0].Type)
	})
}

func TestMilestoneTransitionMessageText(t *testing.T) {
	def := &MilestoneDefinition{Label: "Approved"}

	satisfied := &MilestoneTransition{Definition: def, Kind: TransitionSatisfied}
	assert.Equal(t, "Approved", satisfied.MessageText())

	revoked := &MilestoneTransition{Definition: def, Kind: TransitionRevoked}
	assert.Equal(t, "The milestone 'Approved' has been revoked", revoked.MessageText())
}
