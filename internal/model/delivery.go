package model

import "time"

// Delivery records one attempt to hand a notification to an external
// channel. One row per MessageRecipient; the unique constraint on
// MessageRecipientID makes redelivery idempotent.
type Delivery struct {
	ID                 int       `json:"id"`
	MessageRecipientID int       `json:"message_recipient_id"`
	RecipientID        int       `json:"recipient_id"`
	Channel            string    `json:"channel"`
	Status             string    `json:"status"`
	Detail             string    `json:"detail"`
	CreatedAt          time.Time `json:"created_at"`
}
