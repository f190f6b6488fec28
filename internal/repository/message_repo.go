package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type MessageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMessageRepository(db *pgxpool.Pool, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// InsertMessage writes a message row inside the caller's transaction so it
// commits together with the milestone flip that produced it.
func (r *MessageRepository) InsertMessage(ctx context.Context, tx pgx.Tx, m *model.Message) error {
	err := tx.QueryRow(ctx, `
        INSERT INTO messages (project_milestone_id, text)
        VALUES ($1, $2)
        RETURNING id, created_at
    `, m.ProjectMilestoneID, m.Text).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert message", zap.Error(err))
		return err
	}
	return nil
}

// InsertRecipients writes one recipient row per resolved employee, all
// referencing the same message, in the caller's transaction.
func (r *MessageRepository) InsertRecipients(ctx context.Context, tx pgx.Tx, messageID int, recipientIDs []int) ([]model.MessageRecipient, error) {
	recipients := make([]model.MessageRecipient, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		mr := model.MessageRecipient{
			MessageID:   messageID,
			RecipientID: recipientID,
		}
		err := tx.QueryRow(ctx, `
            INSERT INTO message_recipients (message_id, recipient_id)
            VALUES ($1, $2)
            RETURNING id
        `, messageID, recipientID).Scan(&mr.ID)
		if err != nil {
			r.logger.Error("Failed to insert message recipient",
				zap.Int("message_id", messageID),
				zap.Int("recipient_id", recipientID),
				zap.Error(err),
			)
			return nil, err
		}
		recipients = append(recipients, mr)
	}
	return recipients, nil
}

// ListForRecipient returns an employee's messages newest-first, restricted to
// unread ones unless onlyUnread is false.
func (r *MessageRepository) ListForRecipient(ctx context.Context, recipientID int, onlyUnread bool) ([]model.MessageView, error) {
	query := `
        SELECT mr.id, m.id, p.id, p.code, p.name, m.text, m.created_at, mr.read
        FROM message_recipients mr
        JOIN messages m ON m.id = mr.message_id
        JOIN project_milestones pm ON pm.id = m.project_milestone_id
        JOIN projects p ON p.id = pm.project_id
        WHERE mr.recipient_id = $1
    `
	if onlyUnread {
		query += ` AND mr.read IS NULL`
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		r.logger.Error("Failed to list messages", zap.Int("recipient_id", recipientID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var views []model.MessageView
	for rows.Next() {
		var v model.MessageView
		if err := rows.Scan(
			&v.RecipientRowID, &v.MessageID, &v.ProjectID, &v.ProjectCode,
			&v.ProjectName, &v.Text, &v.CreatedAt, &v.Read,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// MarkRead sets the read timestamp on a recipient row owned by recipientID.
// Idempotent: re-reading an already-read message changes nothing.
func (r *MessageRepository) MarkRead(ctx context.Context, recipientRowID, recipientID int) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE message_recipients
        SET read = NOW()
        WHERE id = $1 AND recipient_id = $2 AND read IS NULL
    `, recipientRowID, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark message read", zap.Int("id", recipientRowID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		// Already read, or not this recipient's row. Distinguish the two.
		var exists bool
		err := r.db.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM message_recipients WHERE id = $1 AND recipient_id = $2
            )
        `, recipientRowID, recipientID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("message recipient %d: %w", recipientRowID, model.ErrNotFound)
		}
	}
	return nil
}
