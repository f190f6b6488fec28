package service

import (
	"context"

	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type requiredReportLister interface {
	ListRequiredReports(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error)
}

type sisterResolver interface {
	GetSisters(ctx context.Context, projectID int, includeSelf bool) ([]model.Project, error)
}

type fulfillmentStore interface {
	FulfilledDefinitionIDs(ctx context.Context, projectIDs []int) (map[int]bool, error)
}

// FulfillmentResolver partitions a project's required report milestones into
// complete and outstanding. A milestone counts as fulfilled when a report
// references it on this project or on any sister in the project's family.
// Fulfillment is computed on every read, never cached, so dropping a sister
// link immediately reverts the project to per-project scope.
type FulfillmentResolver struct {
	milestones requiredReportLister
	sisters    sisterResolver
	reports    fulfillmentStore
	logger     *zap.Logger
}

func NewFulfillmentResolver(
	milestones requiredReportLister,
	sisters sisterResolver,
	reports fulfillmentStore,
	log *zap.Logger,
) *FulfillmentResolver {
	return &FulfillmentResolver{
		milestones: milestones,
		sisters:    sisters,
		reports:    reports,
		logger:     log,
	}
}

// GetComplete returns the project's required report milestones a report has
// fulfilled, family-wide.
func (r *FulfillmentResolver) GetComplete(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	complete, _, err := r.partition(ctx, projectID)
	return complete, err
}

// GetOutstanding returns the required report milestones still awaiting a
// report, family-wide.
func (r *FulfillmentResolver) GetOutstanding(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	_, outstanding, err := r.partition(ctx, projectID)
	return outstanding, err
}

func (r *FulfillmentResolver) partition(ctx context.Context, projectID int) (complete, outstanding []model.ProjectMilestoneDetail, err error) {
	required, err := r.milestones.ListRequiredReports(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if len(required) == 0 {
		return nil, nil, nil
	}

	scope := []int{projectID}
	family, err := r.sisters.GetSisters(ctx, projectID, true)
	if err != nil {
		return nil, nil, err
	}
	if len(family) > 0 {
		scope = scope[:0]
		for _, p := range family {
			scope = append(scope, p.ID)
		}
	}

	fulfilled, err := r.reports.FulfilledDefinitionIDs(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	for _, pm := range required {
		if fulfilled[pm.DefinitionID] {
			complete = append(complete, pm)
		} else {
			outstanding = append(outstanding, pm)
		}
	}
	return complete, outstanding, nil
}
