package processor

import (
	"context"
	"testing"
)

func TestResolveAll_IncludesMuted(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	ph, _ := p.phones.Get("+15550000002")
	ph.Mute = true

	phones := p.resolve("all")
	if len(phones) != 2 {
		t.Fatalf("resolve(all) = %d phones, want 2", len(phones))
	}
}

func TestResolveOps_RegardlessOfMute(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	ph, _ := p.phones.Get("+15550000001")
	ph.Mute = true

	phones := p.resolve("ops")
	if len(phones) != 1 || phones[0].Number != "+15550000001" {
		t.Fatalf("resolve(ops) = %+v, want alice's phone", phones)
	}
}

func TestResolveNick(t *testing.T) {
	p, _, _ := newTestProcessor(t)

	phones := p.resolve("bob")
	if len(phones) != 1 || phones[0].Number != "+15550000002" {
		t.Fatalf("resolve(bob) = %+v", phones)
	}
	if phones := p.resolve("zed"); len(phones) != 0 {
		t.Fatalf("resolve(zed) = %+v, want none", phones)
	}
}

func TestMuteSuppressesDeliveryOnly(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	ph, _ := p.phones.Get("+15550000002")
	ph.Mute = true

	resp := p.Evaluate(context.Background(), consoleContext(), "@all meeting at noon")
	if resp != "" {
		t.Fatalf("broadcast: %q", resp)
	}
	if texts := fake.sentTo("+15550000001"); len(texts) != 1 {
		t.Fatalf("alice delivery: %v", texts)
	}
	if texts := fake.sentTo("+15550000002"); len(texts) != 0 {
		t.Fatalf("muted phone must not receive broadcasts: %v", texts)
	}
}

func TestHeaderBinding(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	p.channel.Head = "From {from} to {to}: "

	if resp := p.Evaluate(context.Background(), consoleContext(), "@bob hello there"); resp != "" {
		t.Fatalf("send: %q", resp)
	}
	texts := fake.sentTo("+15550000002")
	if len(texts) != 1 || texts[0] != "From Admin to bob: hello there" {
		t.Fatalf("delivered text: %v", texts)
	}
}

func TestDestinationCaseInsensitive(t *testing.T) {
	p, fake, _ := newTestProcessor(t)

	if resp := p.Evaluate(context.Background(), consoleContext(), "@BOB hi"); resp != "" {
		t.Fatalf("send: %q", resp)
	}
	texts := fake.sentTo("+15550000002")
	if len(texts) != 1 || texts[0] != "From Admin: hi" {
		t.Fatalf("delivered text: %v", texts)
	}

	if resp := p.Evaluate(context.Background(), consoleContext(), "@ALL hi"); resp != "" {
		t.Fatalf("alias send: %q", resp)
	}
}

func TestFanOutContinuesPastFailure(t *testing.T) {
	p, fake, _ := newTestProcessor(t)
	fake.fail["+15550000001"] = true

	resp := p.Evaluate(context.Background(), consoleContext(), "@all hi")
	if resp != "" {
		t.Fatalf("a per-recipient failure must not fail the command: %q", resp)
	}
	if texts := fake.sentTo("+15550000002"); len(texts) != 1 {
		t.Fatalf("remaining recipients must still be delivered: %v", texts)
	}
}

func TestEmptyMessageRefused(t *testing.T) {
	p, fake, _ := newTestProcessor(t)

	resp := p.Evaluate(context.Background(), consoleContext(), "@bob   ")
	if resp != "Error: Refusing to send empty message to bob." {
		t.Fatalf("empty message: %q", resp)
	}
	if len(fake.sent) != 0 {
		t.Fatalf("no delivery expected: %v", fake.sent)
	}
}

func TestNoSuchNick(t *testing.T) {
	p, _, _ := newTestProcessor(t)

	resp := p.Evaluate(context.Background(), consoleContext(), "@zed hi")
	if resp != "Error: No such nick: zed." {
		t.Fatalf("unknown destination: %q", resp)
	}
}

func TestValidHead(t *testing.T) {
	if err := validHead("From {from} to {to}: "); err != nil {
		t.Fatalf("valid head rejected: %v", err)
	}
	if err := validHead("plain prefix: "); err != nil {
		t.Fatalf("head without fields rejected: %v", err)
	}
	if err := validHead("{sender}: "); err == nil {
		t.Fatal("unknown field accepted")
	}
}
