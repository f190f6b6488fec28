package model

import "time"

// MilestoneCategory is a closed set: definitions are either core (attached to
// every new project) or custom (opt-in per project).
type MilestoneCategory string

const (
	MilestoneCore   MilestoneCategory = "Core"
	MilestoneCustom MilestoneCategory = "Custom"
)

// Valid reports whether c is one of the defined categories.
func (c MilestoneCategory) Valid() bool {
	return c == MilestoneCore || c == MilestoneCustom
}

// Labels of the two definitions the lifecycle state machine derives status
// from. They are seeded as protected core definitions.
const (
	LabelApproved = "Approved"
	LabelSignOff  = "Sign off"
)

// MilestoneDefinition is an administrator-managed checkpoint definition.
// Protected definitions cannot be deleted or relabeled by ordinary edits.
type MilestoneDefinition struct {
	ID           int               `json:"id"`
	Label        string            `json:"label"`
	Category     MilestoneCategory `json:"category"`
	IsReport     bool              `json:"is_report"`
	DisplayOrder int               `json:"display_order"`
	Protected    bool              `json:"protected"`
}

// ProjectMilestone is the per-project record of a milestone. Completed is nil
// until the milestone is satisfied; it only ever changes through an explicit
// lifecycle operation so every flip is observable.
type ProjectMilestone struct {
	ID           int        `json:"id"`
	ProjectID    int        `json:"project_id"`
	DefinitionID int        `json:"definition_id"`
	Required     bool       `json:"required"`
	Completed    *time.Time `json:"completed"`
}

// Done reports whether the milestone has been satisfied.
func (pm *ProjectMilestone) Done() bool {
	return pm.Completed != nil
}

// ProjectMilestoneDetail joins a project milestone with its definition.
type ProjectMilestoneDetail struct {
	ProjectMilestone
	Definition MilestoneDefinition `json:"definition"`
}

// TransitionKind classifies an observed flip of the Completed field.
type TransitionKind string

const (
	TransitionSatisfied TransitionKind = "satisfied"
	TransitionRevoked   TransitionKind = "revoked"
)

// MilestoneTransition describes one committed flip of a ProjectMilestone's
// Completed field, with the prior value read under the same row lock.
type MilestoneTransition struct {
	Project    *Project
	Definition *MilestoneDefinition
	Milestone  *ProjectMilestone
	Kind       TransitionKind
	Previous   *time.Time
}

// MessageText renders the notification text for the transition: the plain
// milestone label when satisfied, the revocation sentence when revoked.
func (t *MilestoneTransition) MessageText() string {
	if t.Kind == TransitionRevoked {
		return "The milestone '" + t.Definition.Label + "' has been revoked"
	}
	return t.Definition.Label
}
