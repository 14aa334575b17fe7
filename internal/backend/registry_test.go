package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"smsrelay/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_UnknownModule(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Load(domain.BackendConfig{Module: "carrier_pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown module")
	}
}

func TestLoad_None(t *testing.T) {
	r := NewRegistry(testLogger())
	be, err := r.Load(domain.BackendConfig{Module: "none"})
	if err != nil {
		t.Fatalf("load none: %v", err)
	}

	ctx := context.Background()
	if err := be.Send(ctx, "+15550000001", "hello"); err != nil {
		t.Fatalf("none send: %v", err)
	}
	msgs, err := be.Receive(ctx)
	if err != nil {
		t.Fatalf("none receive: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("none receive returned %d messages", len(msgs))
	}
}

func TestLoad_None_RejectsArgs(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Load(domain.BackendConfig{Module: "none", Args: map[string]string{"x": "y"}})
	if err == nil {
		t.Fatal("expected error for unexpected argument")
	}
}

func TestLoad_VoipMS_MissingArgs(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Load(domain.BackendConfig{Module: "voipms", Args: map[string]string{"username": "u"}})
	if err == nil {
		t.Fatal("expected error for missing required arguments")
	}
}

func TestLoad_Telegram_MissingToken(t *testing.T) {
	r := NewRegistry(testLogger())
	_, err := r.Load(domain.BackendConfig{Module: "telegram", Args: map[string]string{"+15550000001": "42"}})
	if err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestRegister_CustomModule(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Register("noop2", func(args map[string]string, _ *slog.Logger) (domain.Backend, error) {
		return NewNone(), nil
	})
	if _, err := r.Load(domain.BackendConfig{Module: "noop2"}); err != nil {
		t.Fatalf("load custom module: %v", err)
	}
}
