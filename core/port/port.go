package port

import (
	"context"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultBuffer is the queue capacity used when no buffer option is given.
const DefaultBuffer = 64

// Guard is consulted before every send. A non-nil return rejects the send;
// the returned error is wrapped in a SendError. Owners (actors) use guards
// to gate sends by their lifecycle state.
type Guard func() error

type Options struct {
	Buffer int
	Guard  Guard
}

type Option func(*Options)

// WithBuffer sets the queue capacity. Values <= 0 fail validation.
func WithBuffer(n int) Option {
	return func(o *Options) { o.Buffer = n }
}

// WithGuard installs a send guard. The guard is fixed at construction.
func WithGuard(g Guard) Option {
	return func(o *Options) { o.Guard = g }
}

// Port is a typed, buffered, bidirectional communication endpoint. Identity
// is the generated id: two ports are equal iff their ids match, regardless
// of name or type. The type token is fixed at construction.
//
// FIFO ordering of delivery is only guaranteed with a single consumer.
type Port struct {
	id    string
	name  string
	token TypeToken
	guard Guard

	msgs chan any
	done chan struct{}
	once sync.Once
}

// New creates a port. It fails with a ValidationError if the name is empty,
// the token is zero, or the buffer size is not positive.
func New(name string, token TypeToken, opts ...Option) (*Port, error) {
	o := Options{Buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}

	if name == "" {
		return nil, &ValidationError{Op: "create", Reason: "port name is required"}
	}
	if token.IsZero() {
		return nil, &ValidationError{Op: "create", Reason: "type token is required"}
	}
	if o.Buffer <= 0 {
		return nil, &ValidationError{Op: "create", Reason: fmt.Sprintf("buffer size must be > 0, got %d", o.Buffer)}
	}

	return &Port{
		id:    gonanoid.Must(),
		name:  name,
		token: token,
		guard: o.Guard,
		msgs:  make(chan any, o.Buffer),
		done:  make(chan struct{}),
	}, nil
}

// NewFor creates a port carrying messages of type T.
func NewFor[T any](name string, opts ...Option) (*Port, error) {
	return New(name, TokenFor[T](), opts...)
}

func (p *Port) ID() string       { return p.id }
func (p *Port) Name() string     { return p.name }
func (p *Port) Token() TypeToken { return p.token }

// Equal reports identity equality: same generated id.
func (p *Port) Equal(other *Port) bool {
	return other != nil && p.id == other.id
}

// Send enqueues a message, blocking until it is buffered, the context is
// cancelled, or the port is disposed. Messages whose type does not match
// the port's token fail with a ValidationError.
func (p *Port) Send(ctx context.Context, msg any) error {
	if !p.token.Matches(msg) {
		return &ValidationError{
			Op:     "send",
			Reason: fmt.Sprintf("message type %s does not match port type %s", TokenOf(msg).Name(), p.token.Name()),
		}
	}
	if p.guard != nil {
		if err := p.guard(); err != nil {
			return &SendError{PortID: p.id, PortName: p.name, Err: err}
		}
	}
	select {
	case <-p.done:
		return &SendError{PortID: p.id, PortName: p.name, Err: ErrClosed}
	default:
	}
	select {
	case p.msgs <- msg:
		return nil
	case <-p.done:
		return &SendError{PortID: p.id, PortName: p.name, Err: ErrClosed}
	case <-ctx.Done():
		return &SendError{PortID: p.id, PortName: p.name, Err: ctx.Err()}
	}
}

// Receive dequeues the next message in FIFO order. After Dispose, buffered
// messages are drained first; once empty, Receive returns ErrClosed.
func (p *Port) Receive(ctx context.Context) (any, error) {
	// buffered messages survive disposal
	select {
	case msg := <-p.msgs:
		return msg, nil
	default:
	}
	select {
	case msg := <-p.msgs:
		return msg, nil
	case <-p.done:
		select {
		case msg := <-p.msgs:
			return msg, nil
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispose closes the port permanently. Idempotent. Pending sends fail with
// ErrClosed; receivers drain whatever is buffered and then terminate.
func (p *Port) Dispose() {
	p.once.Do(func() { close(p.done) })
}

// Disposed reports whether the port has been disposed.
func (p *Port) Disposed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Done is closed when the port is disposed.
func (p *Port) Done() <-chan struct{} { return p.done }
