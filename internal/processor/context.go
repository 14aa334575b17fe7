package processor

import "smsrelay/internal/domain"

// Context identifies who is acting and from where for one evaluation. It
// is threaded explicitly through the dispatcher and handlers; a zero
// Context carries no identity and authorizes only open commands.
type Context struct {
	Session bool          // interactive console session
	Actor   *domain.User  // acting user
	Origin  *domain.Phone // phone that produced the inbound message, nil for console sessions
}

// Authorization predicates evaluated against the current context. A
// failed predicate renders exactly like an unknown command so that
// command existence is not discoverable without privilege.

func authAny(Context) bool { return true }

func authOp(c Context) bool { return c.Actor != nil && c.Actor.Op }

func authPhone(c Context) bool { return c.Origin != nil }

func authSession(c Context) bool { return c.Session }
