package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	contracts "projecttracker/contracts/mq"
	"projecttracker/internal/model"
	"projecttracker/internal/repository"
	"projecttracker/pkg/logger"
	"projecttracker/pkg/metrics"
	"projecttracker/pkg/mq"
	"projecttracker/pkg/util"
)

const maxRetries = 5

// NotificationCreatedHandler is the delivery worker. It consumes the events
// the outbox dispatcher publishes, records each delivery exactly once, and
// announces completion on the events exchange. Delivery is fully decoupled
// from lifecycle state: a failure here never rolls back a milestone
// transition.
type NotificationCreatedHandler struct {
	deliveryRepo *repository.DeliveryRepository
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	publisher    *mq.Publisher
	logger       *zap.Logger
}

func NewNotificationCreatedHandler(
	deliveryRepo *repository.DeliveryRepository,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	publisher *mq.Publisher,
	log *zap.Logger,
) *NotificationCreatedHandler {
	return &NotificationCreatedHandler{
		deliveryRepo: deliveryRepo,
		deduper:      deduper,
		retryCounter: retryCounter,
		publisher:    publisher,
		logger:       log,
	}
}

// HandleNotificationCreated processes one notification.created event. The
// method is idempotent: redeliveries are cut off by the redis deduper and,
// failing that, by the unique constraint on the delivery table.
func (h *NotificationCreatedHandler) HandleNotificationCreated(ctx context.Context, raw json.RawMessage) error {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in HandleNotificationCreated",
				zap.Any("panic", r),
			)
		}
	}()

	var p contracts.NotificationCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal notification payload (non-retryable, sending to DLQ)",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		h.sendToDLQ(raw, err.Error())
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	if !h.deduper.AcquireOnce(ctx, "delivery", p.MessageRecipientID) {
		log.Info("Duplicate delivery event skipped",
			zap.Int("message_recipient_id", p.MessageRecipientID),
			zap.Int("recipient_id", p.RecipientID),
		)
		metrics.RecordDelivery(p.Channel, "duplicate")
		return nil
	}

	log.Info("Delivering notification",
		zap.Int("message_recipient_id", p.MessageRecipientID),
		zap.Int("recipient_id", p.RecipientID),
		zap.String("channel", p.Channel),
		zap.String("kind", p.Kind),
	)

	d := &model.Delivery{
		MessageRecipientID: p.MessageRecipientID,
		RecipientID:        p.RecipientID,
		Channel:            p.Channel,
		Status:             "sent",
		Detail:             p.Text,
	}
	if err := h.deliveryRepo.Insert(ctx, d); err != nil {
		isRetryable, errType := util.IsRetryableError(err)
		log.Error("Failed to record delivery",
			zap.Int("message_recipient_id", p.MessageRecipientID),
			zap.String("error_type", errType),
			zap.Bool("retryable", isRetryable),
			zap.Error(err),
		)
		if errType == "duplicate_key" {
			// Already delivered by an earlier attempt.
			metrics.RecordDelivery(p.Channel, "duplicate")
			return nil
		}
		if !isRetryable {
			metrics.RecordDelivery(p.Channel, "failed")
			h.sendToDLQ(raw, errType)
			return nil
		}

		key := util.FormatRetryKey("delivery", p.MessageRecipientID)
		count, cntErr := h.retryCounter.IncrementAndGet(ctx, key)
		if cntErr != nil {
			log.Warn("Retry counter unavailable, retrying anyway", zap.Error(cntErr))
			return err
		}
		if !util.ShouldRetry(count, maxRetries, isRetryable) {
			log.Error("Delivery retries exhausted, sending to DLQ",
				zap.Int("message_recipient_id", p.MessageRecipientID),
				zap.Int64("retries", count),
			)
			metrics.RecordDelivery(p.Channel, "failed")
			h.sendToDLQ(raw, errType)
			return nil
		}
		return err
	}

	metrics.RecordDelivery(p.Channel, "sent")

	sent := contracts.NotificationSentPayload{
		MessageRecipientID: p.MessageRecipientID,
		RecipientID:        p.RecipientID,
		Channel:            p.Channel,
		SentAt:             time.Now(),
	}
	if err := h.publisher.PublishWithContext(ctx, contracts.RoutingKeyNotificationSent, sent); err != nil {
		// The delivery record is committed; losing the announcement only
		// affects downstream listeners.
		log.Warn("Failed to publish notification.sent", zap.Error(err))
	}

	log.Info("Notification delivered",
		zap.Int("message_recipient_id", p.MessageRecipientID),
		zap.Int("recipient_id", p.RecipientID),
	)
	return nil
}

func (h *NotificationCreatedHandler) sendToDLQ(payload []byte, reason string) {
	if err := h.publisher.PublishToDLQ(contracts.RoutingKeyNotificationCreated, payload, reason); err != nil {
		h.logger.Error("Failed to publish to DLQ", zap.Error(err))
	}
}
