package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"projecttracker/internal/model"
	"projecttracker/internal/repository"
	"projecttracker/pkg/logger"
)

type trackerProjectStore interface {
	GetByID(ctx context.Context, id int) (*model.Project, error)
	SetCancelled(ctx context.Context, projectID int, cancelled bool) error
}

type trackerMilestoneStore interface {
	DefinitionByID(ctx context.Context, id int) (*model.MilestoneDefinition, error)
	DefinitionByLabel(ctx context.Context, label string) (*model.MilestoneDefinition, error)
	SetCompleted(ctx context.Context, projectID, definitionID int, completed *time.Time, hook repository.TransitionHook) (*model.MilestoneTransition, bool, error)
	ListForProject(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error)
	Attach(ctx context.Context, projectID, definitionID int, required bool) error
}

type employeeGetter interface {
	Get(ctx context.Context, id int) (*model.Employee, error)
}

// MilestoneTracker is the project lifecycle state machine. Every completed
// flip goes through the milestone store's transactional write with hook
// installed, so notification persistence commits together with the state
// change. Status is always derived on read, never stored.
type MilestoneTracker struct {
	projects   trackerProjectStore
	milestones trackerMilestoneStore
	employees  employeeGetter
	hook       repository.TransitionHook
	logger     *zap.Logger
}

func NewMilestoneTracker(
	projects trackerProjectStore,
	milestones trackerMilestoneStore,
	employees employeeGetter,
	hook repository.TransitionHook,
	log *zap.Logger,
) *MilestoneTracker {
	return &MilestoneTracker{
		projects:   projects,
		milestones: milestones,
		employees:  employees,
		hook:       hook,
		logger:     log,
	}
}

// Approve marks the project's "Approved" milestone satisfied. Approving an
// already-approved project is a silent no-op and sends nothing.
func (t *MilestoneTracker) Approve(ctx context.Context, projectID int) error {
	now := time.Now()
	return t.setByLabel(ctx, projectID, model.LabelApproved, &now)
}

// Unapprove clears the "Approved" milestone. Reachable after approval so a
// manager can override; emits a revoked notification when it actually clears
// something.
func (t *MilestoneTracker) Unapprove(ctx context.Context, projectID int) error {
	return t.setByLabel(ctx, projectID, model.LabelApproved, nil)
}

// SignOff marks the project's "Sign off" milestone satisfied on behalf of
// actor. Fails with model.ErrPermissionDenied when actor lacks edit rights.
func (t *MilestoneTracker) SignOff(ctx context.Context, projectID int, actor *model.User) error {
	p, err := t.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	status, err := t.statusOf(ctx, p)
	if err != nil {
		return err
	}

	var emp *model.Employee
	if actor.EmployeeID != nil {
		emp, err = t.employees.Get(ctx, *actor.EmployeeID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
	}
	if !CanEdit(actor, emp, p, status) {
		log := logger.WithTrace(ctx, t.logger)
		log.Warn("Sign off denied",
			zap.Int("project_id", projectID),
			zap.Int("actor_id", actor.ID),
		)
		return fmt.Errorf("sign off project %d: %w", projectID, model.ErrPermissionDenied)
	}

	now := time.Now()
	return t.setByLabel(ctx, projectID, model.LabelSignOff, &now)
}

// Reopen clears "Sign off"; the project drops back to Ongoing (if still
// approved) or Submitted.
func (t *MilestoneTracker) Reopen(ctx context.Context, projectID int) error {
	return t.setByLabel(ctx, projectID, model.LabelSignOff, nil)
}

// Cancel sets the cancelled flag. Milestone timestamps are untouched, so
// uncancelling restores the previous derived status.
func (t *MilestoneTracker) Cancel(ctx context.Context, projectID int) error {
	return t.projects.SetCancelled(ctx, projectID, true)
}

func (t *MilestoneTracker) Uncancel(ctx context.Context, projectID int) error {
	return t.projects.SetCancelled(ctx, projectID, false)
}

// setByLabel flips the named milestone on the project. The project is
// fetched first so a missing project surfaces as ErrNotFound, while a
// definition that exists but was never attached (or is not configured at
// all) is a lifecycle misconfiguration and surfaces as ErrInvalidTransition.
func (t *MilestoneTracker) setByLabel(ctx context.Context, projectID int, label string, completed *time.Time) error {
	if _, err := t.projects.GetByID(ctx, projectID); err != nil {
		return err
	}

	def, err := t.milestones.DefinitionByLabel(ctx, label)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("no %q milestone definition configured: %w", label, model.ErrInvalidTransition)
		}
		return err
	}

	_, changed, err := t.milestones.SetCompleted(ctx, projectID, def.ID, completed, t.hook)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("milestone %q not attached to project %d: %w", label, projectID, model.ErrInvalidTransition)
		}
		return err
	}
	if !changed {
		logger.WithTrace(ctx, t.logger).Debug("Milestone flip was a no-op",
			zap.Int("project_id", projectID),
			zap.String("label", label),
		)
	}
	return nil
}

// Status derives the project's lifecycle status. It is a pure function of
// the cancelled flag and the "Approved" / "Sign off" completion timestamps.
func (t *MilestoneTracker) Status(ctx context.Context, projectID int) (model.ProjectStatus, error) {
	p, err := t.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	return t.statusOf(ctx, p)
}

func (t *MilestoneTracker) statusOf(ctx context.Context, p *model.Project) (model.ProjectStatus, error) {
	details, err := t.milestones.ListForProject(ctx, p.ID)
	if err != nil {
		return "", err
	}

	var approved, signedOff bool
	for _, d := range details {
		switch d.Definition.Label {
		case model.LabelApproved:
			approved = d.Done()
		case model.LabelSignOff:
			signedOff = d.Done()
		}
	}
	return model.DeriveStatus(p.Cancelled, approved, signedOff), nil
}

// IsApproved reports whether the project's "Approved" milestone is
// completed.
func (t *MilestoneTracker) IsApproved(ctx context.Context, projectID int) (bool, error) {
	done, err := t.MilestoneComplete(ctx, projectID, model.LabelApproved)
	if err != nil {
		return false, err
	}
	return done != nil && *done, nil
}

// MilestoneComplete is the tri-state milestone query: nil when no milestone
// with that label is attached to the project (including labels that name no
// definition at all), otherwise a pointer to whether it is completed.
func (t *MilestoneTracker) MilestoneComplete(ctx context.Context, projectID int, label string) (*bool, error) {
	if _, err := t.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	details, err := t.milestones.ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Definition.Label == label {
			done := d.Done()
			return &done, nil
		}
	}
	return nil, nil
}

// StatusDict returns the ordered per-label milestone status mapping,
// including the synthetic custom-report bucket.
func (t *MilestoneTracker) StatusDict(ctx context.Context, projectID int) ([]model.StatusDictEntry, error) {
	if _, err := t.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	details, err := t.milestones.ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return model.BuildStatusDict(details), nil
}

// AttachMilestone opts the project into a custom milestone or report
// definition. Attaching an already-attached definition is a no-op.
func (t *MilestoneTracker) AttachMilestone(ctx context.Context, projectID, definitionID int, required bool) error {
	if _, err := t.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if _, err := t.milestones.DefinitionByID(ctx, definitionID); err != nil {
		return err
	}
	return t.milestones.Attach(ctx, projectID, definitionID, required)
}

// Milestones lists the project's milestones with their definitions, in
// display order.
func (t *MilestoneTracker) Milestones(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	if _, err := t.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return t.milestones.ListForProject(ctx, projectID)
}
