package outbox

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Inserter is the write-side of the outbox. *Repository implements it;
// callers that fake the outbox in tests implement it too.
type Inserter interface {
	InsertEvent(ctx context.Context, tx pgx.Tx, event *Event) error
}

// InsertEventInTx marshals payload and writes it to the outbox inside tx.
func InsertEventInTx(
	ctx context.Context,
	tx pgx.Tx,
	repo Inserter,
	aggregateType string,
	aggregateID *int64,
	routingKey string,
	payload interface{},
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        "pending",
	}

	return repo.InsertEvent(ctx, tx, event)
}
