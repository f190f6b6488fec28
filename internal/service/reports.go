package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"projecttracker/internal/model"
	"projecttracker/pkg/logger"
)

type reportWriter interface {
	InsertWithMilestones(ctx context.Context, rep *model.Report, pairs [][2]int) error
}

type definitionGetter interface {
	DefinitionByID(ctx context.Context, id int) (*model.MilestoneDefinition, error)
}

// ReportService registers uploaded reports against project milestones. The
// file itself lives in the external upload subsystem; the service only
// records the reference and its milestone associations.
type ReportService struct {
	reports     reportWriter
	definitions definitionGetter
	logger      *zap.Logger
}

func NewReportService(reports reportWriter, definitions definitionGetter, log *zap.Logger) *ReportService {
	return &ReportService{
		reports:     reports,
		definitions: definitions,
		logger:      log,
	}
}

// Register records a report against one project's milestone. The definition
// must be report-typed; fulfillment across the sister family happens at read
// time, not by fanning the association out here.
func (s *ReportService) Register(ctx context.Context, rep *model.Report, projectID, definitionID int) error {
	def, err := s.definitions.DefinitionByID(ctx, definitionID)
	if err != nil {
		return err
	}
	if !def.IsReport {
		return fmt.Errorf("milestone %q is not a report: %w", def.Label, model.ErrInvalidTransition)
	}

	// The storage key is the stable external reference; the path may move.
	rep.StorageKey = uuid.NewString()

	if err := s.reports.InsertWithMilestones(ctx, rep, [][2]int{{projectID, definitionID}}); err != nil {
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Report registered against milestone",
		zap.Int("report_id", rep.ID),
		zap.Int("project_id", projectID),
		zap.String("milestone", def.Label),
	)
	return nil
}
