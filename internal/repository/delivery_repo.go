package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"projecttracker/internal/model"
)

type DeliveryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDeliveryRepository(db *pgxpool.Pool, logger *zap.Logger) *DeliveryRepository {
	return &DeliveryRepository{
		db:     db,
		logger: logger,
	}
}

// Insert records a delivery attempt. The unique index on
// message_recipient_id surfaces duplicates as a constraint error, which the
// worker treats as already-delivered.
func (r *DeliveryRepository) Insert(ctx context.Context, d *model.Delivery) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO notification_deliveries (message_recipient_id, recipient_id, channel, status, detail)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, d.MessageRecipientID, d.RecipientID, d.Channel, d.Status, d.Detail).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert delivery record",
			zap.Int("message_recipient_id", d.MessageRecipientID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListForRecipient returns the delivery history for one recipient, newest
// first.
func (r *DeliveryRepository) ListForRecipient(ctx context.Context, recipientID, limit int) ([]model.Delivery, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, message_recipient_id, recipient_id, channel, status, detail, created_at
        FROM notification_deliveries
        WHERE recipient_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, recipientID, limit)
	if err != nil {
		r.logger.Error("Failed to list deliveries", zap.Int("recipient_id", recipientID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.ID, &d.MessageRecipientID, &d.RecipientID, &d.Channel, &d.Status, &d.Detail, &d.CreatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
