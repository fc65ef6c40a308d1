// Package notify publishes activity to optional external sinks: protocol
// events to a Redis pub/sub channel and committed ledger receipts to a
// RabbitMQ queue.
package notify

import (
	"encoding/json"
	"time"

	"github.com/mtlprog/finagent/internal/domain"
)

// FeedMessage is one protocol event published on the activity feed.
type FeedMessage struct {
	ConnectionID string    `json:"connection_id"`
	Event        any       `json:"event"`
	PublishedAt  time.Time `json:"published_at"`
}

// ReceiptMessage is the wire form of a committed money movement.
// Amounts are decimal strings with two places.
type ReceiptMessage struct {
	TransactionID      string    `json:"transaction_id"`
	Kind               string    `json:"kind"`
	Amount             string    `json:"amount"`
	SourceAccount      string    `json:"source_account,omitempty"`
	DestinationAccount string    `json:"destination_account,omitempty"`
	SourceBalance      string    `json:"source_balance,omitempty"`
	DestinationBalance string    `json:"destination_balance,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewReceiptMessage converts r. Balances are only set for the accounts the
// movement touched.
func NewReceiptMessage(r domain.Receipt) ReceiptMessage {
	msg := ReceiptMessage{
		TransactionID:      r.TransactionID,
		Kind:               string(r.Kind),
		Amount:             r.Amount.StringFixed(2),
		SourceAccount:      r.SourceAccount,
		DestinationAccount: r.DestinationAccount,
		CreatedAt:          r.CreatedAt.UTC(),
	}
	if r.SourceAccount != "" {
		msg.SourceBalance = r.SourceBalance.StringFixed(2)
	}
	if r.DestinationAccount != "" {
		msg.DestinationBalance = r.DestinationBalance.StringFixed(2)
	}
	return msg
}

func encodeFeed(connectionID string, event any, now time.Time) ([]byte, error) {
	return json.Marshal(FeedMessage{
		ConnectionID: connectionID,
		Event:        event,
		PublishedAt:  now.UTC(),
	})
}
