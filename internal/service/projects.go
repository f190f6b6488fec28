package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"projecttracker/internal/model"
	"projecttracker/pkg/logger"
)

type projectWriter interface {
	CreateWithCoreMilestones(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id int) (*model.Project, error)
	GetByCode(ctx context.Context, code string) (*model.Project, error)
}

type watcherWriter interface {
	Watchers(ctx context.Context, projectID int) ([]int, error)
	Watch(ctx context.Context, projectID, employeeID int) error
	Unwatch(ctx context.Context, projectID, employeeID int) error
}

// ProjectService creates and reads projects and manages their watcher
// lists. Creation attaches one ProjectMilestone row per core definition in
// the same transaction, so a project is never observable without its
// lifecycle anchors.
type ProjectService struct {
	projects projectWriter
	watchers watcherWriter
	logger   *zap.Logger
}

func NewProjectService(projects projectWriter, watchers watcherWriter, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		watchers: watchers,
		logger:   log,
	}
}

// Create registers a new project. Lake, type and year are derived from the
// structured code; a malformed code fails before anything is written.
func (s *ProjectService) Create(ctx context.Context, code, name string, leadID, dbaID, ownerID int) (*model.Project, error) {
	lake, ptype, year, _, err := model.ParseCode(code)
	if err != nil {
		return nil, err
	}

	p := &model.Project{
		Code:    code,
		Name:    name,
		LeadID:  leadID,
		DBAID:   dbaID,
		OwnerID: ownerID,
		Lake:    lake,
		Type:    ptype,
		Year:    year,
		Active:  true,
	}
	if err := s.projects.CreateWithCoreMilestones(ctx, p); err != nil {
		return nil, fmt.Errorf("create project %s: %w", code, err)
	}

	logger.WithTrace(ctx, s.logger).Info("Project created",
		zap.Int("id", p.ID),
		zap.String("code", p.Code),
	)
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id int) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *ProjectService) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	return s.projects.GetByCode(ctx, code)
}

// Watch bookmarks the project for the employee. Watching twice is a no-op.
func (s *ProjectService) Watch(ctx context.Context, projectID, employeeID int) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	return s.watchers.Watch(ctx, projectID, employeeID)
}

func (s *ProjectService) Unwatch(ctx context.Context, projectID, employeeID int) error {
	return s.watchers.Unwatch(ctx, projectID, employeeID)
}

func (s *ProjectService) Watchers(ctx context.Context, projectID int) ([]int, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.watchers.Watchers(ctx, projectID)
}
