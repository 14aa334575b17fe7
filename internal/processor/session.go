package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"smsrelay/internal/domain"
)

// State is the lifecycle of one processing session. Exiting is terminal;
// reaching it cleanly is the signal to persist the channel.
type State int

const (
	Idle State = iota
	AwaitingInput
	Evaluating
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting-input"
	case Evaluating:
		return "evaluating"
	case Exiting:
		return "exiting"
	}
	return "unknown"
}

// Session drives the processor from an interactive console or from the
// transport's inbound queue. The two drivers share the same dispatcher
// and router and must not run concurrently.
type Session struct {
	proc   *Processor
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
	state  State
}

type SessionConfig struct {
	Processor *Processor
	Logger    *slog.Logger
	In        io.Reader // optional; defaults to stdin
	Out       io.Writer // optional; defaults to stdout
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Session{
		proc:   cfg.Processor,
		logger: cfg.Logger,
		in:     cfg.In,
		out:    cfg.Out,
		state:  Idle,
	}
}

func (s *Session) State() State { return s.state }

// RunInteractive reads operator lines until end of input, cancellation or
// /exit. The acting identity is a synthetic operator user named nick.
func (s *Session) RunInteractive(ctx context.Context, nick string) error {
	actor := &domain.User{Nick: nick, Op: true, Voice: true}
	c := Context{Session: true, Actor: actor}
	prompt := fmt.Sprintf("%s@%s: ", nick, s.proc.channel.ID)

	scanner := bufio.NewScanner(s.in)
	s.state = AwaitingInput
	for {
		select {
		case <-ctx.Done():
			s.state = Exiting
			return ctx.Err()
		default:
		}

		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			s.state = Exiting
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		s.state = Evaluating
		if resp := s.proc.Evaluate(ctx, c, scanner.Text()); resp != "" {
			fmt.Fprintln(s.out, resp)
		}
		if s.proc.exitRequested {
			s.state = Exiting
			return nil
		}
		s.state = AwaitingInput
	}
}

// ProcessInbound drains the transport once, evaluating each message under
// its sender's identity. Messages from unregistered numbers and phones
// with no live owner are dropped silently.
func (s *Session) ProcessInbound(ctx context.Context) error {
	s.state = Evaluating
	defer func() { s.state = Exiting }()

	messages, err := s.proc.backend.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	for _, m := range messages {
		s.logger.Info("recv", "number", m.Number, "text", m.Text)
		ph, err := s.proc.phones.Get(m.Number)
		if err != nil {
			continue // unregistered sender
		}
		u, err := s.proc.users.Get(ph.Nick)
		if err != nil {
			continue // orphaned phone
		}
		c := Context{Actor: u, Origin: ph}
		resp := s.proc.Evaluate(ctx, c, m.Text)
		if resp == "" {
			continue
		}
		// Direct reply to the originating phone; mute does not apply.
		if err := s.proc.backend.Send(ctx, ph.Number, resp); err != nil {
			s.logger.Error("reply failed", "number", ph.Number, "err", err)
		}
	}
	return nil
}
