package notify

import (
	"context"
	"errors"
)

// Message is the alert fired when a worker reaches the target.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Validate reports whether the message has both addresses set.
func (m Message) Validate() error {
	if m.To == "" {
		return errors.New("notification recipient cannot be empty")
	}
	if m.From == "" {
		return errors.New("notification sender cannot be empty")
	}
	return nil
}

// Receipt describes an accepted delivery.
type Receipt struct {
	// StatusCode is the transport's response status.
	StatusCode int

	// MessageID is the provider's identifier, if it returned one.
	MessageID string
}

// Sender delivers a Message over some transport.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
