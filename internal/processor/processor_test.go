package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"smsrelay/internal/domain"
)

type sentMessage struct {
	number string
	text   string
}

// fakeBackend records sends and replays a canned inbox once.
type fakeBackend struct {
	sent  []sentMessage
	inbox []domain.Message
	fail  map[string]bool // numbers whose sends fail
}

func (f *fakeBackend) Send(_ context.Context, number, text string) error {
	if f.fail[number] {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, sentMessage{number: number, text: text})
	return nil
}

func (f *fakeBackend) Receive(_ context.Context) ([]domain.Message, error) {
	messages := f.inbox
	f.inbox = nil
	return messages, nil
}

func (f *fakeBackend) sentTo(number string) []string {
	var texts []string
	for _, m := range f.sent {
		if m.number == number {
			texts = append(texts, m.text)
		}
	}
	return texts
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProcessor builds a processor over a two-member channel (alice is
// an operator) with a recording fake transport.
func newTestProcessor(t *testing.T) (*Processor, *fakeBackend, *bytes.Buffer) {
	t.Helper()
	ch := domain.NewChannel("club")
	ch.Users = []*domain.User{
		{Nick: "alice", Op: true, Voice: true},
		{Nick: "bob", Voice: true},
	}
	ch.Phones = []*domain.Phone{
		{Number: "+15550000001", Nick: "alice"},
		{Number: "+15550000002", Nick: "bob"},
	}

	out := &bytes.Buffer{}
	p := New(Config{Channel: ch, Logger: testLogger(), Out: out})
	fake := &fakeBackend{fail: make(map[string]bool)}
	p.backend = fake
	return p, fake, out
}

// consoleContext is the identity of an interactive operator session.
func consoleContext() Context {
	return Context{Session: true, Actor: &domain.User{Nick: "Admin", Op: true, Voice: true}}
}

// phoneContext is the identity of an inbound message from a member phone.
func phoneContext(p *Processor, number string) Context {
	ph, err := p.phones.Get(number)
	if err != nil {
		panic(err)
	}
	u, err := p.users.Get(ph.Nick)
	if err != nil {
		panic(err)
	}
	return Context{Actor: u, Origin: ph}
}

func TestEvaluate_EmptyLine(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	if resp := p.Evaluate(context.Background(), consoleContext(), "   "); resp != "" {
		t.Fatalf("empty line should be a no-op, got %q", resp)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("no delivery expected, got %v", fake.sent)
	}
}

func TestNew_BackendFallback(t *testing.T) {
	ch := domain.NewChannel("club")
	ch.Backend = domain.BackendConfig{Module: "carrier_pigeon"}
	out := &bytes.Buffer{}
	p := New(Config{Channel: ch, Logger: testLogger(), Out: out})

	if !bytes.Contains(out.Bytes(), []byte("Backend error:")) {
		t.Fatalf("expected backend error report, got %q", out.String())
	}
	// Degraded session: sends and receives are silent no-ops.
	if err := p.backend.Send(context.Background(), "+15550000001", "x"); err != nil {
		t.Fatalf("fallback send: %v", err)
	}
	msgs, err := p.backend.Receive(context.Background())
	if err != nil || len(msgs) != 0 {
		t.Fatalf("fallback receive: %v %v", msgs, err)
	}
}
