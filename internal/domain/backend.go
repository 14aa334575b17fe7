package domain

import "context"

// Message is one inbound text received from the transport.
type Message struct {
	Number string
	Text   string
}

// Backend is the pluggable transport used to exchange text with phones.
type Backend interface {
	// Send delivers text to a single number. It returns a transport error
	// on failure; business conditions never surface here.
	Send(ctx context.Context, number string, text string) error

	// Receive returns the messages that arrived since the last call, in
	// receipt order. Returned messages are consumed: a subsequent call
	// must not redeliver them.
	Receive(ctx context.Context) ([]Message, error)
}
