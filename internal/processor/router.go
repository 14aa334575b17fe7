package processor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"smsrelay/internal/domain"
)

// send routes body to every phone the destination expands to, prefixed
// with the channel header.
func (p *Processor) send(ctx context.Context, c Context, dest, body string) error {
	nick := dest
	if u, err := p.users.Get(nick); err == nil {
		nick = u.Nick
	} else {
		for _, alias := range []string{p.channel.Aliases.All, p.channel.Aliases.Ops} {
			if strings.EqualFold(alias, nick) {
				nick = alias
				break
			}
		}
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return errorf("Refusing to send empty message to %s.", nick)
	}
	phones := p.resolve(nick)
	if len(phones) == 0 {
		return errorf("No such nick: %s.", nick)
	}
	header := expandHead(p.channel.Head, c.Actor.Nick, nick)
	for _, ph := range phones {
		p.deliver(ctx, ph, header+body)
	}
	return nil
}

// resolve expands a destination to its phones. The "all" alias matches
// every phone, the "ops" alias every phone owned by an operator. Mute is
// ignored here: it applies at delivery, never at resolution.
func (p *Processor) resolve(nick string) []*domain.Phone {
	return lo.Filter(p.phones.Records(), func(ph *domain.Phone, _ int) bool {
		if nick == p.channel.Aliases.All {
			return true
		}
		if strings.EqualFold(ph.Nick, nick) {
			return true
		}
		if nick == p.channel.Aliases.Ops {
			u, err := p.users.Get(ph.Nick)
			return err == nil && u.Op
		}
		return false
	})
}

// deliver sends text to one phone. Muted phones are skipped silently; a
// transport failure is reported and does not abort the fan-out.
func (p *Processor) deliver(ctx context.Context, ph *domain.Phone, text string) {
	if ph.Mute {
		return
	}
	p.logger.Info("send", "number", ph.Number, "text", text)
	if err := p.backend.Send(ctx, ph.Number, text); err != nil {
		p.logger.Error("send failed", "number", ph.Number, "err", err)
	}
}

// notify reports an event to the channel operators and the console log.
func (p *Processor) notify(ctx context.Context, c Context, event string) {
	msg := fmt.Sprintf("%s %s.", c.Actor.Nick, event)
	for _, ph := range p.resolve(p.channel.Aliases.Ops) {
		p.deliver(ctx, ph, msg)
	}
	p.logger.Info("notify", "event", msg)
}

var headField = regexp.MustCompile(`\{([^{}]*)\}`)

// validHead checks that a header template uses only the {from} and {to}
// fields.
func validHead(head string) error {
	for _, m := range headField.FindAllStringSubmatch(head, -1) {
		if m[1] != "from" && m[1] != "to" {
			return errorf("Only {from} and {to} fields can be expressed in header.")
		}
	}
	return nil
}

func expandHead(head, from, to string) string {
	return strings.NewReplacer("{from}", from, "{to}", to).Replace(head)
}
