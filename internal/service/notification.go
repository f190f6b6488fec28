package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	contracts "projecttracker/contracts/mq"
	"projecttracker/internal/model"
	"projecttracker/pkg/logger"
	"projecttracker/pkg/metrics"
	"projecttracker/pkg/outbox"
	"projecttracker/pkg/trace"
)

type supervisorWalker interface {
	Chain(ctx context.Context, employeeID, level int) ([]model.Employee, error)
}

type watcherStore interface {
	Watchers(ctx context.Context, projectID int) ([]int, error)
}

type messageStore interface {
	InsertMessage(ctx context.Context, tx pgx.Tx, m *model.Message) error
	InsertRecipients(ctx context.Context, tx pgx.Tx, messageID int, recipientIDs []int) ([]model.MessageRecipient, error)
	ListForRecipient(ctx context.Context, recipientID int, onlyUnread bool) ([]model.MessageView, error)
	MarkRead(ctx context.Context, recipientRowID, recipientID int) error
}

type eventWriter interface {
	InsertEvent(ctx context.Context, tx pgx.Tx, event *outbox.Event) error
}

// NotificationEngine turns committed milestone transitions into persisted
// messages and per-recipient rows, and queues delivery events on the outbox.
// Message persistence shares the milestone's transaction; actual delivery is
// the worker's problem and can fail without touching lifecycle state.
type NotificationEngine struct {
	directory supervisorWalker
	watchers  watcherStore
	messages  messageStore
	events    eventWriter
	logger    *zap.Logger
}

func NewNotificationEngine(
	directory supervisorWalker,
	watchers watcherStore,
	messages messageStore,
	events eventWriter,
	log *zap.Logger,
) *NotificationEngine {
	return &NotificationEngine{
		directory: directory,
		watchers:  watchers,
		messages:  messages,
		events:    events,
		logger:    log,
	}
}

// BuildRecipients resolves the notification fan-out for a project:
// the lead's supervisor chain (capped at level hops when level > 0), the
// project dba when includeDBA is set, and every watcher. Recipients are
// de-duplicated by identity, nearest-first, so a dba who also watches the
// project appears exactly once.
func (e *NotificationEngine) BuildRecipients(ctx context.Context, project *model.Project, level int, includeDBA bool) ([]int, error) {
	var ordered []int
	seen := make(map[int]bool)

	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}

	chain, err := e.directory.Chain(ctx, project.LeadID, level)
	if err != nil {
		return nil, err
	}
	for _, emp := range chain {
		add(emp.ID)
	}

	if includeDBA {
		add(project.DBAID)
	}

	watchers, err := e.watchers.Watchers(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range watchers {
		add(id)
	}

	return ordered, nil
}

// HandleTransition is the transition hook installed on the milestone store.
// It runs inside the transaction that flips the milestone: the Message, its
// MessageRecipient rows and the outbox delivery events commit or fail
// together with the state change. An empty recipient set still produces the
// Message row, for audit.
func (e *NotificationEngine) HandleTransition(ctx context.Context, tx pgx.Tx, tr *model.MilestoneTransition) error {
	log := logger.WithTrace(ctx, e.logger)

	recipients, err := e.BuildRecipients(ctx, tr.Project, 0, true)
	if err != nil {
		return err
	}

	msg := &model.Message{
		ProjectMilestoneID: tr.Milestone.ID,
		Text:               tr.MessageText(),
	}
	if err := e.messages.InsertMessage(ctx, tx, msg); err != nil {
		return err
	}

	rows, err := e.messages.InsertRecipients(ctx, tx, msg.ID, recipients)
	if err != nil {
		return err
	}

	if e.events != nil {
		for _, mr := range rows {
			payload := contracts.NotificationCreatedPayload{
				MessageID:          msg.ID,
				MessageRecipientID: mr.ID,
				RecipientID:        mr.RecipientID,
				ProjectID:          tr.Project.ID,
				ProjectCode:        tr.Project.Code,
				Channel:            "EMAIL",
				Text:               msg.Text,
				Kind:               string(tr.Kind),
				CreatedAt:          time.Now(),
				TraceID:            trace.FromContext(ctx),
			}
			aggregateID := int64(msg.ID)
			err := outbox.InsertEventInTx(ctx, tx, e.events, "message", &aggregateID,
				contracts.RoutingKeyNotificationCreated, payload)
			if err != nil {
				return err
			}
		}
	}

	metrics.RecordTransition(tr.Definition.Label, string(tr.Kind))
	metrics.RecordFanout(string(tr.Kind), len(recipients))
	metrics.RecordMessageCreated(string(tr.Kind))

	log.Info("Milestone transition notified",
		zap.Int("project_id", tr.Project.ID),
		zap.String("milestone", tr.Definition.Label),
		zap.String("kind", string(tr.Kind)),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

// MyMessages returns the recipient's messages newest-first, unread only by
// default.
func (e *NotificationEngine) MyMessages(ctx context.Context, recipientID int, onlyUnread bool) ([]model.MessageView, error) {
	return e.messages.ListForRecipient(ctx, recipientID, onlyUnread)
}

// MarkAsRead marks one of the recipient's message rows as read. Idempotent.
func (e *NotificationEngine) MarkAsRead(ctx context.Context, recipientRowID, recipientID int) error {
	return e.messages.MarkRead(ctx, recipientRowID, recipientID)
}
