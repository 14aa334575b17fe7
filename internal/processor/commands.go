package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"smsrelay/internal/domain"
)

// buildCommands constructs the dispatch table from a static declaration
// list. Each entry carries its authorization predicate and parameter
// decoders as data.
func (p *Processor) buildCommands() map[string]*command {
	list := []*command{
		{
			name:    "mute",
			summary: "Disable receiving messages.",
			auth:    authPhone,
			run:     p.cmdMute,
		},
		{
			name:    "unmute",
			summary: "Enable receiving messages.",
			auth:    authPhone,
			run:     p.cmdUnmute,
		},
		{
			name:    "who",
			summary: "List users or get user information.",
			auth:    authAny,
			params:  []param{{name: "nick", decode: decodeNick, optional: true}},
			run:     p.cmdWho,
		},
		{
			name:    "ping",
			summary: "Ping the service to confirm access.",
			auth:    authAny,
			run:     p.cmdPing,
		},
		{
			name:    "help",
			summary: "List commands or display help for command.",
			auth:    authAny,
			params:  []param{{name: "command", decode: decodeString, optional: true}},
			run:     p.cmdHelp,
		},
		{
			name:    "add",
			summary: "Add member to channel.",
			auth:    authOp,
			params: []param{
				{name: "number", decode: decodeNumber},
				{name: "nick", decode: decodeNick},
			},
			run: p.cmdAdd,
		},
		{
			name:    "remove",
			summary: "Remove member from channel.",
			auth:    authOp,
			params:  []param{{name: "number", decode: decodeNumber}},
			run:     p.cmdRemove,
		},
		{
			name:    "op",
			summary: "List operators or promote user to channel operator.",
			auth:    authOp,
			params:  []param{{name: "nick", decode: decodeNick, optional: true}},
			run:     p.cmdOp,
		},
		{
			name:    "deop",
			summary: "Demote channel operator to user.",
			auth:    authOp,
			params:  []param{{name: "nick", decode: decodeNick}},
			run:     p.cmdDeop,
		},
		{
			name:     "alias",
			summary:  "Get or set aliases.",
			auth:     authOp,
			variadic: true,
			run:      p.cmdAlias,
		},
		{
			name:    "head",
			summary: "Get or set message header.",
			auth:    authOp,
			params:  []param{{name: "value", decode: decodeString, optional: true}},
			run:     p.cmdHead,
		},
		{
			name:    "rcpt",
			summary: "Get or set recipient of unaddressed messages.",
			auth:    authOp,
			params:  []param{{name: "nick", decode: decodeNick, optional: true}},
			run:     p.cmdRcpt,
		},
		{
			name:    "exit",
			summary: "Exit the channel.",
			auth:    authSession,
			run:     p.cmdExit,
		},
		{
			name:     "backend",
			summary:  "Get or set backend config.",
			auth:     authSession,
			params:   []param{{name: "module", decode: decodeString, optional: true}},
			variadic: true,
			run:      p.cmdBackend,
		},
	}

	table := make(map[string]*command, len(list))
	for _, cmd := range list {
		table[cmd.name] = cmd
	}
	return table
}

func (p *Processor) cmdMute(ctx context.Context, c Context, _ []string, _ map[string]string) (string, error) {
	ph := c.Origin
	if ph.Mute {
		return "", errorf("Channel is already muted. Use /unmute to unmute.")
	}
	ph.Mute = true
	p.notify(ctx, c, fmt.Sprintf("muted channel on %s", ph.Number))
	return fmt.Sprintf("Channel muted on %s. Use /unmute to unmute.", ph.Number), nil
}

func (p *Processor) cmdUnmute(ctx context.Context, c Context, _ []string, _ map[string]string) (string, error) {
	ph := c.Origin
	if !ph.Mute {
		return "", errorf("Channel is not muted.")
	}
	ph.Mute = false
	p.notify(ctx, c, fmt.Sprintf("unmuted channel on %s", ph.Number))
	return fmt.Sprintf("Channel unmuted on %s.", ph.Number), nil
}

func (p *Processor) cmdWho(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	if len(args) == 0 || !authOp(c) {
		return fmt.Sprintf("Users: %s.", joinSorted(p.users.Keys())), nil
	}
	u, err := p.users.Get(args[0])
	if err != nil {
		return "", errorf("No such user: %s.", args[0])
	}
	op := ""
	if u.Op {
		op = " [op]"
	}
	numbers := lo.FilterMap(p.phones.Records(), func(ph *domain.Phone, _ int) (string, bool) {
		return ph.Number, strings.EqualFold(ph.Nick, u.Nick)
	})
	return fmt.Sprintf("User: %s%s %s.", u.Nick, op, joinSorted(numbers)), nil
}

func (p *Processor) cmdPing(ctx context.Context, c Context, _ []string, _ map[string]string) (string, error) {
	source := "console"
	if c.Origin != nil {
		source = c.Origin.Number
	}
	return fmt.Sprintf("Ping received from %s via %s.", c.Actor.Nick, source), nil
}

func (p *Processor) cmdHelp(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	authorized := lo.PickBy(p.commands, func(_ string, cmd *command) bool {
		return cmd.auth(c)
	})
	if len(args) == 0 {
		return fmt.Sprintf("Commands: %s.", joinSorted(lo.Keys(authorized))), nil
	}
	name := args[0]
	cmd, ok := authorized[name]
	if !ok {
		return fmt.Sprintf("Unknown command: %s.", name), nil
	}
	return fmt.Sprintf("%s %s", p.usage(cmd), cmd.summary), nil
}

func (p *Processor) cmdAdd(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	number, nick := args[0], args[1]
	if ph, err := p.phones.Get(number); err == nil {
		return "", errorf("%s is already registered to %s.", number, ph.Nick)
	}
	if strings.EqualFold(nick, p.channel.Aliases.All) || strings.EqualFold(nick, p.channel.Aliases.Ops) {
		return "", errorf("Nick unavailable: %s.", nick)
	}
	u, err := p.users.Get(nick)
	if err != nil {
		u = &domain.User{Nick: nick, Voice: true}
		if err := p.users.Add(u); err != nil {
			return "", err
		}
	}
	if err := p.phones.Add(&domain.Phone{Number: number, Nick: u.Nick}); err != nil {
		return "", err
	}
	p.notify(ctx, c, fmt.Sprintf("added %s as %s", number, u.Nick))
	return "", nil
}

func (p *Processor) cmdRemove(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	number := args[0]
	ph, err := p.phones.Get(number)
	if err != nil {
		return "", errorf("Number not in channel: %s.", number)
	}
	if err := p.phones.Delete(number); err != nil {
		return "", err
	}
	suffix := ""
	if u, err := p.users.Get(ph.Nick); err == nil {
		suffix = fmt.Sprintf(" (%s)", u.Nick)
		remaining := lo.SomeBy(p.phones.Records(), func(q *domain.Phone) bool {
			return strings.EqualFold(q.Nick, u.Nick)
		})
		if !remaining {
			if err := p.users.Delete(u.Nick); err != nil { // orphan cleanup
				return "", err
			}
		}
	}
	p.notify(ctx, c, fmt.Sprintf("removed %s%s from channel", number, suffix))
	return "", nil
}

func (p *Processor) cmdOp(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	if len(args) == 0 {
		ops := lo.FilterMap(p.users.Records(), func(u *domain.User, _ int) (string, bool) {
			return u.Nick, u.Op
		})
		return fmt.Sprintf("Operators: %s.", joinSorted(ops)), nil
	}
	u, err := p.users.Get(args[0])
	if err != nil {
		return "", errorf("No such user: %s.", args[0])
	}
	if u.Op {
		return "", errorf("User %s is already channel operator.", u.Nick)
	}
	u.Op = true
	p.notify(ctx, c, fmt.Sprintf("promoted %s to channel operator", u.Nick))
	return "", nil
}

func (p *Processor) cmdDeop(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	u, err := p.users.Get(args[0])
	if err != nil {
		return "", errorf("No such user: %s.", args[0])
	}
	if !u.Op {
		return "", errorf("User %s is not channel operator.", u.Nick)
	}
	p.notify(ctx, c, fmt.Sprintf("demoted %s to channel user", u.Nick))
	u.Op = false
	return "", nil
}

func (p *Processor) cmdAlias(ctx context.Context, c Context, _ []string, kwargs map[string]string) (string, error) {
	if len(kwargs) == 0 {
		current := map[string]string{
			"all": p.channel.Aliases.All,
			"ops": p.channel.Aliases.Ops,
		}
		return fmt.Sprintf("Aliases: %s.", joinKV(current)), nil
	}

	// Validate every pair before applying any, so a bad key or a value
	// colliding with a member nick leaves the aliases unchanged.
	keys := lo.Keys(kwargs)
	sort.Strings(keys)
	for _, key := range keys {
		switch strings.ToLower(key) {
		case "all", "ops":
		default:
			return "", errorf("Unsupported alias: %s.", key)
		}
		if p.users.Contains(kwargs[key]) {
			return "", errorf("Alias unavailable: %s.", kwargs[key])
		}
	}
	for _, key := range keys {
		switch strings.ToLower(key) {
		case "all":
			p.channel.Aliases.All = kwargs[key]
		case "ops":
			p.channel.Aliases.Ops = kwargs[key]
		}
	}
	p.notify(ctx, c, fmt.Sprintf("set aliases: %s", joinKV(kwargs)))
	return "", nil
}

func (p *Processor) cmdHead(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return fmt.Sprintf("Header: %q.", p.channel.Head), nil
	}
	value := args[0]
	if err := validHead(value); err != nil {
		return "", err
	}
	p.channel.Head = value
	p.notify(ctx, c, fmt.Sprintf("set message header to: %q", value))
	return "", nil
}

func (p *Processor) cmdRcpt(ctx context.Context, c Context, args []string, _ map[string]string) (string, error) {
	if len(args) == 0 {
		return fmt.Sprintf("Unaddressed messages go to: %s.", p.channel.Rcpt), nil
	}
	nick := args[0]
	if u, err := p.users.Get(nick); err == nil {
		nick = u.Nick
	} else if strings.EqualFold(nick, p.channel.Aliases.All) {
		nick = p.channel.Aliases.All
	} else if strings.EqualFold(nick, p.channel.Aliases.Ops) {
		nick = p.channel.Aliases.Ops
	} else {
		return "", errorf("No such nick: %s.", nick)
	}
	p.channel.Rcpt = nick
	p.notify(ctx, c, fmt.Sprintf("set default recipient to %s", nick))
	return "", nil
}

func (p *Processor) cmdExit(ctx context.Context, c Context, _ []string, _ map[string]string) (string, error) {
	p.exitRequested = true
	return "", nil
}

func (p *Processor) cmdBackend(ctx context.Context, c Context, args []string, kwargs map[string]string) (string, error) {
	if len(args) == 0 {
		cfg := p.channel.Backend
		if len(cfg.Args) == 0 {
			return fmt.Sprintf("Backend: %s.", cfg.Module), nil
		}
		return fmt.Sprintf("Backend: %s %s.", cfg.Module, joinKV(cfg.Args)), nil
	}
	cfg := domain.BackendConfig{Module: args[0], Args: kwargs}
	be, err := p.backends.Load(cfg)
	if err != nil {
		return "", errorf("%v.", err)
	}
	p.backend = be
	p.channel.Backend = cfg
	return "Backend successfully set.", nil
}
