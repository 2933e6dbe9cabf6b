package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/metrics"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
)

// Handler is a single-step message transform in a connection pipeline.
type Handler func(ctx context.Context, msg any) (any, error)

type Options struct {
	Handlers []Handler
	Adapter  ProtocolAdapter
	Rules    []ConversionRule
	Logger   *slog.Logger

	// Routed counts messages delivered into the target; Dropped counts
	// messages lost to transform failures. Both default to no-ops.
	Routed  metrics.Counter
	Dropped metrics.Counter
}

type Option func(*Options)

// WithHandlers appends transform steps applied before the adapter and rules.
func WithHandlers(hs ...Handler) Option {
	return func(o *Options) { o.Handlers = append(o.Handlers, hs...) }
}

// WithAdapter supplies the optional protocol adapter.
func WithAdapter(a ProtocolAdapter) Option {
	return func(o *Options) { o.Adapter = a }
}

// WithRules appends conversion rules applied after handlers and adapter.
func WithRules(rs ...ConversionRule) Option {
	return func(o *Options) { o.Rules = append(o.Rules, rs...) }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *Options) { o.Logger = log }
}

// WithCounters instruments the routing loop: routed counts deliveries into
// the target, dropped counts messages lost to transform failures.
func WithCounters(routed, dropped metrics.Counter) Option {
	return func(o *Options) {
		o.Routed = routed
		o.Dropped = dropped
	}
}

// PortConnection is a validated, directed pipeline from a source port to a
// target port. It does not own the ports (they may belong to different
// actors); it owns only its routing task, whose handle is guarded by a
// connection-local lock so concurrent Start/Stop/StopAndJoin cannot race.
type PortConnection struct {
	source *port.Port
	target *port.Port

	handlers []Handler
	adapter  ProtocolAdapter
	rules    []ConversionRule
	log      *slog.Logger
	routed   metrics.Counter
	dropped  metrics.Counter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Connect validates and builds a connection. Validation runs exactly once,
// synchronously; an illegal connection is never constructed:
//
//  1. identical type tokens always connect;
//  2. otherwise a supplied protocol adapter must declare it can bridge the
//     pair;
//  3. otherwise a non-empty rule chain is walked, each rule being checked
//     against the connection's final target type. Chains that narrow
//     through an intermediate type must therefore declare compatibility
//     with the target directly; see the package documentation.
//
// Any other combination fails with a ConnectionError naming both ports and
// every validation path that was attempted.
func Connect(source, target *port.Port, opts ...Option) (*PortConnection, error) {
	if source == nil || target == nil {
		return nil, &port.ValidationError{Op: "connect", Reason: "source and target ports are required"}
	}

	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Routed == nil {
		o.Routed = metrics.NopCounter()
	}
	if o.Dropped == nil {
		o.Dropped = metrics.NopCounter()
	}

	if err := validate(source, target, o.Adapter, o.Rules); err != nil {
		return nil, err
	}

	return &PortConnection{
		source:   source,
		target:   target,
		handlers: o.Handlers,
		adapter:  o.Adapter,
		rules:    o.Rules,
		routed:   o.Routed,
		dropped:  o.Dropped,
		log: o.Logger.With(
			slog.String("source", source.Name()),
			slog.String("target", target.Name()),
		),
	}, nil
}

func validate(source, target *port.Port, adapter ProtocolAdapter, rules []ConversionRule) error {
	srcTok, dstTok := source.Token(), target.Token()
	if srcTok == dstTok {
		return nil
	}

	details := map[string]string{
		"source_type": srcTok.Name(),
		"target_type": dstTok.Name(),
	}

	if adapter != nil {
		if adapter.CanHandle(srcTok, dstTok) {
			return nil
		}
		details["protocol_adapter"] = fmt.Sprintf("%T cannot bridge %s -> %s", adapter, srcTok.Name(), dstTok.Name())
	} else {
		details["protocol_adapter"] = "not supplied"
	}

	if len(rules) > 0 {
		for i, r := range rules {
			// every rule is checked from the source type against the final
			// target type; see the package documentation
			if !r.CanHandle(srcTok, dstTok) {
				details[fmt.Sprintf("rule[%d]", i)] = fmt.Sprintf("%s cannot bridge %s -> %s", r.Describe(), srcTok.Name(), dstTok.Name())
				return &ConnectionError{
					SourceID: source.ID(),
					TargetID: target.ID(),
					Reason:   "conversion rule chain rejected the type pair",
					Details:  details,
				}
			}
		}
		return nil
	}
	details["rules"] = "no conversion rules supplied"

	return &ConnectionError{
		SourceID: source.ID(),
		TargetID: target.ID(),
		Reason:   "no conversion path between port types",
		Details:  details,
	}
}

func (c *PortConnection) Source() *port.Port { return c.source }
func (c *PortConnection) Target() *port.Port { return c.target }

// Start launches the routing task under ctx. A connection routes at most
// once concurrently; starting a running connection is a no-op.
func (c *PortConnection) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
			// previous task finished, allow restart
		default:
			return nil
		}
	}

	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go c.route(rctx, done)
	c.log.Debug("connection started")
	return nil
}

// Stop cancels the routing task without waiting for it to finish.
func (c *PortConnection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// StopAndJoin cancels the routing task and waits for full termination. Use
// this during any ordered shutdown so no send is attempted into a target
// that is concurrently being torn down.
func (c *PortConnection) StopAndJoin() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// route continuously reads from the source, pushes each message through
// handlers, adapter and rules, and writes the result into the target. A
// closed target is a normal shutdown path and stops the task silently;
// transform failures are logged and the message dropped.
func (c *PortConnection) route(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		msg, err := c.source.Receive(ctx)
		if err != nil {
			return
		}

		out, err := c.transform(ctx, msg)
		if err != nil {
			c.dropped.Inc()
			c.log.Warn("dropping message", slog.Any("error", err))
			continue
		}

		if err := c.target.Send(ctx, out); err != nil {
			if errors.Is(err, port.ErrClosed) || ctx.Err() != nil {
				return
			}
			c.dropped.Inc()
			c.log.Warn("send to target failed", slog.Any("error", err))
			continue
		}
		c.routed.Inc()
	}
}

func (c *PortConnection) transform(ctx context.Context, msg any) (any, error) {
	var err error
	for i, h := range c.handlers {
		msg, err = h(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("handler[%d]: %w", i, err)
		}
	}
	if c.adapter != nil {
		msg, err = c.adapter.Encode(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("protocol adapter: %w", err)
		}
	}
	for i, r := range c.rules {
		msg, err = r.Convert(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("rule[%d] %s: %w", i, r.Describe(), err)
		}
	}
	return msg, nil
}
