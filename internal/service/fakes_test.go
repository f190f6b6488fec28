package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"projecttracker/internal/db"
	"projecttracker/internal/model"
	"projecttracker/internal/repository"
	"projecttracker/pkg/outbox"
)

// In-memory fakes for the narrow store interfaces the services consume.
// Transactions are a no-op: the fakes receive nil pgx.Tx / db.Queryer and
// apply writes immediately.

type fakeEmployeeStore struct {
	employees map[int]model.Employee
}

func newFakeEmployeeStore(employees ...model.Employee) *fakeEmployeeStore {
	s := &fakeEmployeeStore{employees: make(map[int]model.Employee)}
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	return s
}

func (s *fakeEmployeeStore) Get(_ context.Context, id int) (*model.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %d: %w", id, model.ErrNotFound)
	}
	return &e, nil
}

func (s *fakeEmployeeStore) DirectReports(_ context.Context, id int) ([]model.Employee, error) {
	var reports []model.Employee
	for _, e := range s.employees {
		if e.SupervisorID != nil && *e.SupervisorID == id {
			reports = append(reports, e)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

type fakeWatcherStore struct {
	watchers map[int][]int
}

func (s *fakeWatcherStore) Watchers(_ context.Context, projectID int) ([]int, error) {
	return s.watchers[projectID], nil
}

func (s *fakeWatcherStore) Watch(_ context.Context, projectID, employeeID int) error {
	for _, id := range s.watchers[projectID] {
		if id == employeeID {
			return nil
		}
	}
	if s.watchers == nil {
		s.watchers = make(map[int][]int)
	}
	s.watchers[projectID] = append(s.watchers[projectID], employeeID)
	return nil
}

func (s *fakeWatcherStore) Unwatch(_ context.Context, projectID, employeeID int) error {
	kept := s.watchers[projectID][:0]
	for _, id := range s.watchers[projectID] {
		if id != employeeID {
			kept = append(kept, id)
		}
	}
	s.watchers[projectID] = kept
	return nil
}

type fakeMessageStore struct {
	nextMessageID   int
	nextRecipientID int
	messages        []*model.Message
	recipients      []*model.MessageRecipient
}

func (s *fakeMessageStore) InsertMessage(_ context.Context, _ pgx.Tx, m *model.Message) error {
	s.nextMessageID++
	m.ID = s.nextMessageID
	m.CreatedAt = time.Now()
	s.messages = append(s.messages, m)
	return nil
}

func (s *fakeMessageStore) InsertRecipients(_ context.Context, _ pgx.Tx, messageID int, recipientIDs []int) ([]model.MessageRecipient, error) {
	rows := make([]model.MessageRecipient, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		s.nextRecipientID++
		mr := &model.MessageRecipient{
			ID:          s.nextRecipientID,
			MessageID:   messageID,
			RecipientID: rid,
		}
		s.recipients = append(s.recipients, mr)
		rows = append(rows, *mr)
	}
	return rows, nil
}

func (s *fakeMessageStore) ListForRecipient(_ context.Context, recipientID int, onlyUnread bool) ([]model.MessageView, error) {
	var views []model.MessageView
	for i := len(s.recipients) - 1; i >= 0; i-- {
		mr := s.recipients[i]
		if mr.RecipientID != recipientID {
			continue
		}
		if onlyUnread && mr.Read != nil {
			continue
		}
		var msg *model.Message
		for _, m := range s.messages {
			if m.ID == mr.MessageID {
				msg = m
				break
			}
		}
		views = append(views, model.MessageView{
			RecipientRowID: mr.ID,
			MessageID:      mr.MessageID,
			Text:           msg.Text,
			CreatedAt:      msg.CreatedAt,
			Read:           mr.Read,
		})
	}
	return views, nil
}

func (s *fakeMessageStore) MarkRead(_ context.Context, recipientRowID, recipientID int) error {
	for _, mr := range s.recipients {
		if mr.ID == recipientRowID && mr.RecipientID == recipientID {
			if mr.Read == nil {
				now := time.Now()
				mr.Read = &now
			}
			return nil
		}
	}
	return fmt.Errorf("message recipient %d: %w", recipientRowID, model.ErrNotFound)
}

// recipientsOf returns the recipient ids of one message, in insertion order.
func (s *fakeMessageStore) recipientsOf(messageID int) []int {
	var ids []int
	for _, mr := range s.recipients {
		if mr.MessageID == messageID {
			ids = append(ids, mr.RecipientID)
		}
	}
	return ids
}

type fakeEventStore struct {
	events []*outbox.Event
}

func (s *fakeEventStore) InsertEvent(_ context.Context, _ pgx.Tx, event *outbox.Event) error {
	s.events = append(s.events, event)
	return nil
}

type fakeProjectStore struct {
	projects map[int]*model.Project
	// approved mirrors the "Approved" milestone completion the real query
	// joins against.
	approved map[int]bool
}

func newFakeProjectStore(projects ...*model.Project) *fakeProjectStore {
	s := &fakeProjectStore{
		projects: make(map[int]*model.Project),
		approved: make(map[int]bool),
	}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *fakeProjectStore) approve(projectID int) {
	s.approved[projectID] = true
}

func (s *fakeProjectStore) GetByID(_ context.Context, id int) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, model.ErrNotFound)
	}
	return p, nil
}

func (s *fakeProjectStore) GetByIDs(_ context.Context, ids []int) ([]model.Project, error) {
	var out []model.Project
	for _, id := range ids {
		if p, ok := s.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeProjectStore) SetCancelled(_ context.Context, projectID int, cancelled bool) error {
	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %d: %w", projectID, model.ErrNotFound)
	}
	p.Cancelled = cancelled
	return nil
}

func (s *fakeProjectStore) SisterCandidates(_ context.Context, p *model.Project) ([]model.Project, error) {
	if p.Cancelled || !s.approved[p.ID] {
		return nil, nil
	}
	var out []model.Project
	for _, c := range s.projects {
		if c.ID != p.ID && c.Type == p.Type && c.Year == p.Year && !c.Cancelled && s.approved[c.ID] {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeMilestoneStore keeps per-project milestone rows and mirrors the
// transactional SetCompleted contract: the hook runs before the flip is
// considered committed, and a hook error reverts it.
type fakeMilestoneStore struct {
	projects    *fakeProjectStore
	definitions map[int]model.MilestoneDefinition
	rows        map[int]map[int]*model.ProjectMilestone // projectID -> definitionID
	nextRowID   int
}

func newFakeMilestoneStore(projects *fakeProjectStore, defs ...model.MilestoneDefinition) *fakeMilestoneStore {
	s := &fakeMilestoneStore{
		projects:    projects,
		definitions: make(map[int]model.MilestoneDefinition),
		rows:        make(map[int]map[int]*model.ProjectMilestone),
	}
	for _, d := range defs {
		s.definitions[d.ID] = d
	}
	return s
}

func (s *fakeMilestoneStore) attach(projectID, definitionID int, required bool) {
	if s.rows[projectID] == nil {
		s.rows[projectID] = make(map[int]*model.ProjectMilestone)
	}
	if _, ok := s.rows[projectID][definitionID]; ok {
		return
	}
	s.nextRowID++
	s.rows[projectID][definitionID] = &model.ProjectMilestone{
		ID:           s.nextRowID,
		ProjectID:    projectID,
		DefinitionID: definitionID,
		Required:     required,
	}
}

func (s *fakeMilestoneStore) DefinitionByID(_ context.Context, id int) (*model.MilestoneDefinition, error) {
	d, ok := s.definitions[id]
	if !ok {
		return nil, fmt.Errorf("milestone definition: %w", model.ErrNotFound)
	}
	return &d, nil
}

func (s *fakeMilestoneStore) DefinitionByLabel(_ context.Context, label string) (*model.MilestoneDefinition, error) {
	for _, d := range s.definitions {
		if d.Label == label {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("milestone definition: %w", model.ErrNotFound)
}

func (s *fakeMilestoneStore) SetCompleted(
	ctx context.Context,
	projectID int,
	definitionID int,
	completed *time.Time,
	hook repository.TransitionHook,
) (*model.MilestoneTransition, bool, error) {
	p, ok := s.projects.projects[projectID]
	if !ok {
		return nil, false, fmt.Errorf("project %d: %w", projectID, model.ErrNotFound)
	}
	d, ok := s.definitions[definitionID]
	if !ok {
		return nil, false, fmt.Errorf("definition %d: %w", definitionID, model.ErrNotFound)
	}
	pm, ok := s.rows[projectID][definitionID]
	if !ok {
		return nil, false, fmt.Errorf("milestone %q not attached to project %d: %w",
			d.Label, projectID, model.ErrNotFound)
	}

	previous := pm.Completed
	if (previous == nil) == (completed == nil) {
		return &model.MilestoneTransition{
			Project:    p,
			Definition: &d,
			Milestone:  pm,
			Previous:   previous,
		}, false, nil
	}

	pm.Completed = completed
	kind := model.TransitionSatisfied
	if completed == nil {
		kind = model.TransitionRevoked
	}
	tr := &model.MilestoneTransition{
		Project:    p,
		Definition: &d,
		Milestone:  pm,
		Kind:       kind,
		Previous:   previous,
	}

	if hook != nil {
		if err := hook(ctx, nil, tr); err != nil {
			pm.Completed = previous
			return nil, false, fmt.Errorf("transition hook: %w", err)
		}
	}
	return tr, true, nil
}

func (s *fakeMilestoneStore) ListForProject(_ context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	var details []model.ProjectMilestoneDetail
	for defID, pm := range s.rows[projectID] {
		details = append(details, model.ProjectMilestoneDetail{
			ProjectMilestone: *pm,
			Definition:       s.definitions[defID],
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].Definition.DisplayOrder < details[j].Definition.DisplayOrder
	})
	return details, nil
}

func (s *fakeMilestoneStore) ListRequiredReports(ctx context.Context, projectID int) ([]model.ProjectMilestoneDetail, error) {
	all, _ := s.ListForProject(ctx, projectID)
	var reports []model.ProjectMilestoneDetail
	for _, d := range all {
		if d.Required && d.Definition.IsReport {
			reports = append(reports, d)
		}
	}
	return reports, nil
}

func (s *fakeMilestoneStore) Attach(_ context.Context, projectID, definitionID int, required bool) error {
	s.attach(projectID, definitionID, required)
	return nil
}

// fakeFamilyStore holds sister links in memory; InSerializableTx simply
// runs fn against the same state.
type fakeFamilyStore struct {
	links        map[int]int // projectID -> familyID
	families     map[int]bool
	nextFamilyID int
}

func newFakeFamilyStore() *fakeFamilyStore {
	return &fakeFamilyStore{
		links:    make(map[int]int),
		families: make(map[int]bool),
	}
}

func (s *fakeFamilyStore) InSerializableTx(_ context.Context, fn func(q db.Queryer) error) error {
	return fn(nil)
}

func (s *fakeFamilyStore) FamilyOf(_ context.Context, _ db.Queryer, projectID int) (*int, error) {
	if id, ok := s.links[projectID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (s *fakeFamilyStore) CreateFamily(_ context.Context, _ db.Queryer) (int, error) {
	s.nextFamilyID++
	s.families[s.nextFamilyID] = true
	return s.nextFamilyID, nil
}

func (s *fakeFamilyStore) Link(_ context.Context, _ db.Queryer, projectID, familyID int) error {
	s.links[projectID] = familyID
	return nil
}

func (s *fakeFamilyStore) Unlink(_ context.Context, _ db.Queryer, projectID int) error {
	delete(s.links, projectID)
	return nil
}

func (s *fakeFamilyStore) Members(_ context.Context, _ db.Queryer, familyID int) ([]int, error) {
	var members []int
	for pid, fid := range s.links {
		if fid == familyID {
			members = append(members, pid)
		}
	}
	sort.Ints(members)
	return members, nil
}

func (s *fakeFamilyStore) MoveMembers(_ context.Context, _ db.Queryer, fromID, toID int) error {
	for pid, fid := range s.links {
		if fid == fromID {
			s.links[pid] = toID
		}
	}
	return nil
}

func (s *fakeFamilyStore) DeleteFamily(_ context.Context, _ db.Queryer, familyID int) error {
	delete(s.families, familyID)
	return nil
}

type fakeFulfillmentStore struct {
	// (projectID, definitionID) pairs that have a report attached.
	fulfilled map[[2]int]bool
}

func newFakeFulfillmentStore() *fakeFulfillmentStore {
	return &fakeFulfillmentStore{fulfilled: make(map[[2]int]bool)}
}

func (s *fakeFulfillmentStore) FulfilledDefinitionIDs(_ context.Context, projectIDs []int) (map[int]bool, error) {
	out := make(map[int]bool)
	for pair := range s.fulfilled {
		for _, pid := range projectIDs {
			if pair[0] == pid {
				out[pair[1]] = true
			}
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users  map[int]*model.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int]*model.User)}
}

func (s *fakeUserStore) Insert(_ context.Context, u *model.User) (int, error) {
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return u, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, model.ErrNotFound)
}
