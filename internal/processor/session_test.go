package processor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"smsrelay/internal/domain"
)

func newTestSession(p *Processor, input string) (*Session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	s := NewSession(SessionConfig{
		Processor: p,
		Logger:    testLogger(),
		In:        strings.NewReader(input),
		Out:       out,
	})
	return s, out
}

func TestInteractive_RefusesUnaddressedText(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	s, out := newTestSession(p, "hello everyone\n")

	if err := s.RunInteractive(context.Background(), "Admin"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Error: Cowardly refusing to send message without explicit @nick.") {
		t.Fatalf("expected refusal, got %q", out.String())
	}
	if len(fake.sent) != 0 {
		t.Fatalf("no delivery attempted: %v", fake.sent)
	}
	if s.State() != Exiting {
		t.Fatalf("state after end of input = %v", s.State())
	}
}

func TestInteractive_ExitCommandTerminates(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	s, _ := newTestSession(p, "/exit\n/op zed\n")

	if err := s.RunInteractive(context.Background(), "Admin"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.State() != Exiting {
		t.Fatalf("state after /exit = %v", s.State())
	}
	// The line after /exit is never evaluated.
	if p.users.Contains("zed") {
		t.Fatal("input after /exit must not be processed")
	}
}

func TestInteractive_EvaluatesAndPrints(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	s, out := newTestSession(p, "/ping\n/exit\n")

	if err := s.RunInteractive(context.Background(), "Admin"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Ping received from Admin via console.") {
		t.Fatalf("ping response not printed: %q", out.String())
	}
	if !strings.Contains(out.String(), "Admin@club: ") {
		t.Fatalf("prompt not printed: %q", out.String())
	}
}

func TestInbound_UnknownNumberDroppedSilently(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	fake.inbox = []domain.Message{{Number: "+19990000000", Text: "/ping"}}
	s, _ := newTestSession(p, "")

	if err := s.ProcessInbound(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("unregistered sender must not be acknowledged: %v", fake.sent)
	}
	if len(p.channel.Users) != 2 || len(p.channel.Phones) != 2 {
		t.Fatal("state changed for unregistered sender")
	}
}

func TestInbound_OrphanedPhoneIgnored(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	p.channel.Phones = append(p.channel.Phones, &domain.Phone{Number: "+15550000077", Nick: "ghost"})
	fake.inbox = []domain.Message{{Number: "+15550000077", Text: "/ping"}}
	s, _ := newTestSession(p, "")

	if err := s.ProcessInbound(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("orphaned phone must be ignored: %v", fake.sent)
	}
}

func TestInbound_ReplyBypassesMute(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	ph, _ := p.phones.Get("+15550000002")
	ph.Mute = true
	fake.inbox = []domain.Message{{Number: "+15550000002", Text: "/ping"}}
	s, _ := newTestSession(p, "")

	if err := s.ProcessInbound(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	texts := fake.sentTo("+15550000002")
	if len(texts) != 1 || texts[0] != "Ping received from bob via +15550000002." {
		t.Fatalf("direct reply: %v", texts)
	}
}

func TestInbound_UnaddressedTextGoesToDefaultRecipient(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	fake.inbox = []domain.Message{{Number: "+15550000002", Text: "need a hand"}}
	s, _ := newTestSession(p, "")

	if err := s.ProcessInbound(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	// Default recipient is the ops alias: alice's phone.
	texts := fake.sentTo("+15550000001")
	if len(texts) != 1 || texts[0] != "From bob: need a hand" {
		t.Fatalf("ops delivery: %v", texts)
	}
}

func TestInbound_DrainsWholeBatchInOrder(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	fake.inbox = []domain.Message{
		{Number: "+15550000001", Text: "/ping"},
		{Number: "+15550000002", Text: "/ping"},
	}
	s, _ := newTestSession(p, "")

	if err := s.ProcessInbound(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(fake.sent) != 2 {
		t.Fatalf("expected 2 replies, got %v", fake.sent)
	}
	if fake.sent[0].number != "+15550000001" || fake.sent[1].number != "+15550000002" {
		t.Fatalf("replies out of receipt order: %v", fake.sent)
	}
	if s.State() != Exiting {
		t.Fatalf("state after drain = %v", s.State())
	}
}
