package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nkiryanov/pacta/internal/logger"
)

const (
	CodeUnregistered = "unregistered"  // token no longer valid: device uninstalled or chat blocked the bot
	CodeInvalidToken = "invalid-token" // token malformed or empty
	CodeUnavailable  = "unavailable"   // delivery service is down, throttled or timed out
	CodeUnknown      = "unknown"
)

const defaultSendTimeout = 5 * time.Second

type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	// Attempt best-effort delivery. Errors are *Error
	Send(ctx context.Context, m Message) error
}

type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("push %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// ErrorCode returns code of push error or CodeUnknown for foreign errors
func ErrorCode(err error) string {
	var pushErr *Error
	if errors.As(err, &pushErr) {
		return pushErr.Code
	}
	return CodeUnknown
}

// Router dispatches message to sender registered for the token prefix
type Router struct {
	routes   []route
	fallback Sender
}

type route struct {
	prefix string
	sender Sender
}

func NewRouter(fallback Sender) *Router {
	return &Router{fallback: fallback}
}

func (r *Router) Handle(prefix string, s Sender) *Router {
	r.routes = append(r.routes, route{prefix: prefix, sender: s})
	return r
}

func (r *Router) Send(ctx context.Context, m Message) error {
	if m.Token == "" {
		return NewError(CodeInvalidToken, errors.New("empty token"))
	}

	for _, rt := range r.routes {
		if strings.HasPrefix(m.Token, rt.prefix) {
			return rt.sender.Send(ctx, m)
		}
	}

	if r.fallback == nil {
		return NewError(CodeInvalidToken, fmt.Errorf("no sender for token %q", redact(m.Token)))
	}

	return r.fallback.Send(ctx, m)
}

// LogSender only logs messages. Used when no delivery service configured
type LogSender struct {
	Logger logger.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Logger.Info("Push message (not delivered, no push service configured)",
		"token", redact(m.Token),
		"title", m.Title,
		"body", m.Body,
		"data", m.Data,
	)
	return nil
}

// Tokens are credentials of a kind, keep only the head in logs
func redact(token string) string {
	const keep = 12
	if len(token) <= keep {
		return token
	}
	return token[:keep] + "..."
}
