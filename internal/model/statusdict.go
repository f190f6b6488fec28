package model

import "sort"

// Entry types and statuses used by the milestone status dictionary.
const (
	EntryTypeMilestone = "milestone"
	EntryTypeReport    = "report"

	StatusRequiredDone       = "required-done"
	StatusRequiredNotDone    = "required-notDone"
	StatusNotRequiredDone    = "notRequired-done"
	StatusNotRequiredNotDone = "notRequired-notDone"
)

// CustomBucketKey is the synthetic entry aggregating all custom report-type
// milestones of a project.
const CustomBucketKey = "custom"

// StatusDictEntry is one row of the ordered milestone status dictionary.
type StatusDictEntry struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

func entryStatus(required, done bool) string {
	switch {
	case required && done:
		return StatusRequiredDone
	case required:
		return StatusRequiredNotDone
	case done:
		return StatusNotRequiredDone
	default:
		return StatusNotRequiredNotDone
	}
}

// BuildStatusDict renders the ordered status dictionary for one project's
// milestones: one entry per distinct milestone label in catalog display
// order, plus the "custom" bucket last. Custom report-type milestones are
// folded into the bucket instead of appearing individually; the bucket is
// required-done only when every one of them is both required and completed.
func BuildStatusDict(milestones []ProjectMilestoneDetail) []StatusDictEntry {
	sorted := make([]ProjectMilestoneDetail, len(milestones))
	copy(sorted, milestones)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Definition.DisplayOrder < sorted[j].Definition.DisplayOrder
	})

	entries := make([]StatusDictEntry, 0, len(sorted)+1)
	seen := make(map[string]bool)

	var customAny, customAnyRequired bool
	customAllRequiredDone := true

	for _, m := range sorted {
		def := m.Definition
		if def.Category == MilestoneCustom && def.IsReport {
			customAny = true
			if m.Required {
				customAnyRequired = true
			}
			if !m.Required || !m.Done() {
				customAllRequiredDone = false
			}
			continue
		}

		if seen[def.Label] {
			continue
		}
		seen[def.Label] = true

		entryType := EntryTypeMilestone
		if def.IsReport {
			entryType = EntryTypeReport
		}
		entries = append(entries, StatusDictEntry{
			Key:    def.Label,
			Type:   entryType,
			Status: entryStatus(m.Required, m.Done()),
		})
	}

	var customStatus string
	switch {
	case customAny && customAllRequiredDone:
		customStatus = StatusRequiredDone
	case customAnyRequired:
		customStatus = StatusRequiredNotDone
	default:
		customStatus = StatusNotRequiredNotDone
	}
	entries = append(entries, StatusDictEntry{
		Key:    CustomBucketKey,
		Type:   EntryTypeReport,
		Status: customStatus,
	})

	return entries
}
