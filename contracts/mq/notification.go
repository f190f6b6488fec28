package mq

import "time"

// Routing keys on the events exchange.
const (
	RoutingKeyNotificationCreated = "notification.created"
	RoutingKeyNotificationSent    = "notification.sent"
)

// NotificationCreatedPayload is emitted once per resolved recipient when a
// milestone transition is committed. The delivery worker turns it into an
// email (or other channel) send.
type NotificationCreatedPayload struct {
	MessageID          int       `json:"message_id"`
	MessageRecipientID int       `json:"message_recipient_id"`
	RecipientID        int       `json:"recipient_id"`
	ProjectID          int       `json:"project_id"`
	ProjectCode        string    `json:"project_code"`
	Channel            string    `json:"channel"` // EMAIL / PUSH / SMS / WEBHOOK
	Text               string    `json:"text"`
	Kind               string    `json:"kind"` // satisfied / revoked
	CreatedAt          time.Time `json:"created_at"`
	TraceID            string    `json:"trace_id,omitempty"`
}

type NotificationSentPayload struct {
	MessageRecipientID int       `json:"message_recipient_id"`
	RecipientID        int       `json:"recipient_id"`
	Channel            string    `json:"channel"`
	SentAt             time.Time `json:"sent_at"`
}
