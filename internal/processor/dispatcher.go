package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"smsrelay/internal/domain"
)

// decoder validates and normalizes one raw positional token.
type decoder func(raw string) (string, error)

func decodeString(raw string) (string, error) { return raw, nil }

func decodeNumber(raw string) (string, error) {
	if err := domain.ValidNumber(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func decodeNick(raw string) (string, error) {
	if err := domain.ValidNick(raw); err != nil {
		return "", err
	}
	return raw, nil
}

type param struct {
	name     string
	decode   decoder
	optional bool
}

// command is one dispatch table entry: handler plus its authorization
// predicate and declared parameters.
type command struct {
	name     string
	summary  string
	auth     func(Context) bool
	params   []param
	variadic bool // trailing key=value tokens collected into kwargs
	run      func(ctx context.Context, c Context, args []string, kwargs map[string]string) (string, error)
}

// evalCommand parses and executes one slash command line (prefix already
// stripped). Unknown names and failed authorization produce the same
// response.
func (p *Processor) evalCommand(ctx context.Context, c Context, line string) (string, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return "", errorf("Invalid quoting: %s.", line)
	}
	if len(tokens) == 0 {
		return "", errorf("Missing command.")
	}
	name, rest := tokens[0], tokens[1:]

	cmd := p.commands[name]
	if cmd == nil || !cmd.auth(c) {
		return fmt.Sprintf("Unknown command: %s.", name), nil
	}

	var args []string
	for _, prm := range cmd.params {
		if len(rest) == 0 {
			break // missing arguments caught by the arity check below
		}
		raw := rest[0]
		rest = rest[1:]
		value, err := prm.decode(raw)
		if err != nil {
			return "", errorf("Invalid %s: %s.", prm.name, raw)
		}
		args = append(args, value)
	}
	required := 0
	for _, prm := range cmd.params {
		if !prm.optional {
			required++
		}
	}
	if len(args) < required {
		return p.usage(cmd), nil
	}

	kwargs := make(map[string]string)
	if cmd.variadic {
		for _, token := range rest {
			key, value, ok := strings.Cut(token, "=")
			if !ok {
				return "", errorf("Invalid key-value: %s.", token)
			}
			kwargs[key] = value
		}
	} else if len(rest) > 0 {
		return p.usage(cmd), nil
	}

	return cmd.run(ctx, c, args, kwargs)
}

// usage renders a command's declared signature: required names bare,
// optional names bracketed, the variadic slot as [key=value]...
func (p *Processor) usage(cmd *command) string {
	parts := []string{"/" + cmd.name}
	for _, prm := range cmd.params {
		if prm.optional {
			parts = append(parts, "["+prm.name+"]")
		} else {
			parts = append(parts, prm.name)
		}
	}
	if cmd.variadic {
		parts = append(parts, "[key=value]...")
	}
	return fmt.Sprintf("Usage: %s.", strings.Join(parts, " "))
}
