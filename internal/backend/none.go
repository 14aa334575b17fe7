package backend

import (
	"context"

	"smsrelay/internal/domain"
)

// None is a transport that sends nothing and receives nothing. It is the
// safe fallback when a channel's configured backend cannot be loaded.
type None struct{}

func NewNone() *None { return &None{} }

func (*None) Send(ctx context.Context, number string, text string) error { return nil }

func (*None) Receive(ctx context.Context) ([]domain.Message, error) { return nil, nil }
