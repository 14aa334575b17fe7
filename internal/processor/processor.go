// Package processor implements the command processing engine for a
// single channel: the dispatcher that parses and authorizes slash
// commands, the alias router that fans text out to member phones, and
// the session drivers that feed it from a console or from the transport.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"smsrelay/internal/backend"
	"smsrelay/internal/directory"
	"smsrelay/internal/domain"
)

// Processor owns one channel for the duration of a session and evaluates
// lines against it. It is not safe for concurrent use; a session runs
// evaluations strictly one at a time.
type Processor struct {
	channel  *domain.Channel
	users    *directory.Directory[*domain.User]
	phones   *directory.Directory[*domain.Phone]
	backend  domain.Backend
	backends *backend.Registry
	commands map[string]*command
	logger   *slog.Logger
	out      io.Writer // operator console

	exitRequested bool
}

type Config struct {
	Channel  *domain.Channel
	Backends *backend.Registry // optional; defaults to the built-in registry
	Logger   *slog.Logger
	Out      io.Writer // optional; defaults to stdout
}

// New builds a processor for one channel and loads its configured
// transport. A backend configuration error does not fail the session:
// it is reported once and the session continues on the no-op transport.
func New(cfg Config) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Backends == nil {
		cfg.Backends = backend.NewRegistry(cfg.Logger)
	}

	p := &Processor{
		channel:  cfg.Channel,
		backends: cfg.Backends,
		logger:   cfg.Logger,
		out:      cfg.Out,
	}
	p.users = directory.New(&cfg.Channel.Users, func(u *domain.User) string { return u.Nick }, true)
	p.phones = directory.New(&cfg.Channel.Phones, func(ph *domain.Phone) string { return ph.Number }, false)
	p.commands = p.buildCommands()

	be, err := cfg.Backends.Load(cfg.Channel.Backend)
	if err != nil {
		fmt.Fprintf(p.out, "Backend error: %v.\n", err)
		p.logger.Warn("backend disabled", "module", cfg.Channel.Backend.Module, "err", err)
		be = backend.NewNone()
	}
	p.backend = be
	return p
}

// Channel returns the channel this processor operates on.
func (p *Processor) Channel() *domain.Channel { return p.channel }

// Evaluate processes one line of input under c and returns the response
// text to deliver back to the sender, if any.
func (p *Processor) Evaluate(ctx context.Context, c Context, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	resp, err := p.eval(ctx, c, line)
	if err != nil {
		var se senderError
		if errors.As(err, &se) {
			return "Error: " + se.msg
		}
		return "Error: " + err.Error()
	}
	return resp
}

func (p *Processor) eval(ctx context.Context, c Context, line string) (string, error) {
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		return p.evalCommand(ctx, c, rest)
	}
	if !strings.HasPrefix(line, "@") {
		if c.Session {
			return "", errorf("Cowardly refusing to send message without explicit @nick.")
		}
		line = "@" + p.channel.Rcpt + " " + line
	}
	dest, body, _ := strings.Cut(line[1:], " ")
	return "", p.send(ctx, c, dest, body)
}
