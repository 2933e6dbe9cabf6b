package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
)

const (
	// DefaultBuffer is the per-port queue capacity unless overridden.
	DefaultBuffer = 64
	// DefaultTimeout is the per-message processing deadline unless overridden.
	DefaultTimeout = 30 * time.Second
)

// Handler processes one message delivered to a port. The returned value is
// the (possibly transformed) message; mailbox loops discard it, connection
// pipelines feed it onward.
type Handler func(ctx context.Context, msg any) (any, error)

// Options configures a new actor. Zero values get sensible defaults.
type Options struct {
	ID      string
	Name    string
	Context context.Context
	Logger  *slog.Logger
	Metrics ActorMetrics
	// OnError is invoked for every message-processing failure, after the
	// failure is recorded and the actor has moved to the error state.
	OnError func(err error)

	DefaultBuffer  int
	DefaultTimeout time.Duration
}

// Actor owns a set of named, typed ports and one background mailbox loop per
// port. Its context is a structured concurrency scope: cancelling it tears
// down everything the actor owns.
type Actor struct {
	id  string
	log *slog.Logger

	muName sync.RWMutex
	name   string

	ctx    context.Context
	cancel context.CancelFunc

	state *machine
	rec   *Recorder

	onError func(err error)

	defBuffer  int
	defTimeout time.Duration

	// muPorts is always acquired before muTasks
	muPorts sync.Mutex
	ports   map[string]*wrappedPort

	muTasks sync.Mutex
	tasks   []*task

	disposeOnce sync.Once
}

// task is the handle of one background mailbox loop.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// wrappedPort binds a port to its handler, buffer size and per-message
// timeout. The declared token must equal the underlying port's token; this
// is checked once at construction and never re-validated.
type wrappedPort struct {
	port    *port.Port
	handler Handler
	buffer  int
	timeout time.Duration
}

func newWrappedPort(p *port.Port, token port.TypeToken, h Handler, buffer int, timeout time.Duration) (*wrappedPort, error) {
	if p.Token() != token {
		return nil, &port.ValidationError{
			Op:     "wrap",
			Reason: fmt.Sprintf("declared type %s does not match port type %s", token.Name(), p.Token().Name()),
		}
	}
	return &wrappedPort{port: p, handler: h, buffer: buffer, timeout: timeout}, nil
}

// New creates an actor in the initialized state. No messages are processed
// until Start.
func New(opts Options) *Actor {
	if opts.ID == "" {
		opts.ID = gonanoid.Must()
	}
	if opts.Name == "" {
		opts.Name = "actor-" + opts.ID
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultBuffer <= 0 {
		opts.DefaultBuffer = DefaultBuffer
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}

	log := opts.Logger.With(slog.String("actor", opts.Name))

	ctx, cancel := context.WithCancel(opts.Context)
	a := &Actor{
		id:         opts.ID,
		name:       opts.Name,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		state:      newMachine(),
		rec:        newRecorder(opts.Metrics),
		defBuffer:  opts.DefaultBuffer,
		defTimeout: opts.DefaultTimeout,
		ports:      make(map[string]*wrappedPort),
	}

	a.onError = opts.OnError
	if a.onError == nil {
		a.onError = func(err error) {
			log.Error("message processing failed", slog.Any("error", err))
		}
	}

	return a
}

func (a *Actor) ID() string { return a.id }

func (a *Actor) Name() string {
	a.muName.RLock()
	defer a.muName.RUnlock()
	return a.name
}

// SetName renames the actor. The id is immutable. Log lines keep the name
// the actor was created with.
func (a *Actor) SetName(name string) {
	a.muName.Lock()
	defer a.muName.Unlock()
	a.name = name
}

// StateInfo returns the current lifecycle state and its reason.
func (a *Actor) StateInfo() Status { return a.state.Status() }

// IsActive reports whether the actor's scope is alive and its state is
// exactly running.
func (a *Actor) IsActive() bool {
	return a.ctx.Err() == nil && a.state.Is(StateRunning)
}

// Metrics returns a snapshot of the actor's counters plus lifecycle info.
func (a *Actor) Metrics() map[string]any {
	m := a.rec.Snapshot()
	st := a.state.Status()
	m["state"] = st.State.String()
	if st.Reason != "" {
		m["state_reason"] = st.Reason
	}
	a.muPorts.Lock()
	m["ports"] = len(a.ports)
	a.muPorts.Unlock()
	return m
}

// Recorder exposes the metrics recorder, e.g. for explicit resets.
func (a *Actor) Recorder() *Recorder { return a.rec }

// PortOption overrides per-port buffer size or processing timeout.
type PortOption func(*portOpts)

type portOpts struct {
	buffer  int
	timeout time.Duration
}

// WithBuffer sets the port's queue capacity.
func WithBuffer(n int) PortOption {
	return func(o *portOpts) { o.buffer = n }
}

// WithTimeout sets the per-message processing deadline.
func WithTimeout(d time.Duration) PortOption {
	return func(o *portOpts) { o.timeout = d }
}

// CreatePort registers a named, typed port with a handler and spawns its
// mailbox loop. It fails with a ValidationError if the name is already
// registered or the buffer size is not positive. The returned raw port can
// be sent to and connected from outside the actor.
func (a *Actor) CreatePort(name string, token port.TypeToken, h Handler, opts ...PortOption) (*port.Port, error) {
	o := portOpts{buffer: a.defBuffer, timeout: a.defTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	return a.createPortLocked(name, token, h, o)
}

// createPortLocked registers the port and spawns its loop. muPorts must be
// held.
func (a *Actor) createPortLocked(name string, token port.TypeToken, h Handler, o portOpts) (*port.Port, error) {
	if o.buffer <= 0 {
		return nil, &port.ValidationError{
			Op:     "create-port",
			Reason: fmt.Sprintf("buffer size must be > 0, got %d", o.buffer),
		}
	}

	if _, exists := a.ports[name]; exists {
		return nil, &port.ValidationError{
			Op:     "create-port",
			Reason: fmt.Sprintf("port %q already registered", name),
		}
	}

	p, err := port.New(name, token, port.WithBuffer(o.buffer), port.WithGuard(a.sendGuard))
	if err != nil {
		return nil, err
	}

	wp, err := newWrappedPort(p, token, h, o.buffer, o.timeout)
	if err != nil {
		return nil, err
	}

	a.ports[name] = wp
	a.rec.sink.PortCount(a.id, len(a.ports))

	a.muTasks.Lock()
	a.tasks = append(a.tasks, a.spawnLoop(wp))
	a.muTasks.Unlock()

	a.log.Debug("port created", slog.String("port", name), slog.String("type", token.Name()))
	return p, nil
}

// CreatePortFor registers a port for message type T with a typed handler.
func CreatePortFor[T any](a *Actor, name string, h func(ctx context.Context, msg T) (T, error), opts ...PortOption) (*port.Port, error) {
	return a.CreatePort(name, port.TokenFor[T](), func(ctx context.Context, msg any) (any, error) {
		v, ok := msg.(T)
		if !ok {
			return nil, &port.ValidationError{
				Op:     "handle",
				Reason: fmt.Sprintf("message type %T is not %s", msg, port.TokenFor[T]().Name()),
			}
		}
		return h(ctx, v)
	}, opts...)
}

// GetPort returns the registered port only if both name and type token
// match; otherwise nil. Absence is a normal outcome, not an error.
func (a *Actor) GetPort(name string, token port.TypeToken) *port.Port {
	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	wp, ok := a.ports[name]
	if !ok || wp.port.Token() != token {
		return nil
	}
	return wp.port
}

// RemovePort deregisters a port and disposes its queue. Legal only while
// the actor is initialized, running or paused. All mailbox loops are
// stopped and restarted for the remaining ports; this trades efficiency for
// not having to mutate the task list while loops are in flight. Returns
// whether a port with that name existed.
func (a *Actor) RemovePort(name string) (bool, error) {
	if st := a.state.Status().State; st != StateInitialized && st != StateRunning && st != StatePaused {
		return false, fmt.Errorf("remove port %q: actor is %s: %w", name, st, ErrInvalidState)
	}

	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	return a.removePortLocked(name), nil
}

// removePortLocked drops the port, disposes its queue and restarts the
// loops for everything remaining. muPorts must be held.
func (a *Actor) removePortLocked(name string) bool {
	wp, existed := a.ports[name]
	if existed {
		delete(a.ports, name)
	}

	a.muTasks.Lock()
	defer a.muTasks.Unlock()

	a.stopTasksLocked()
	if existed {
		wp.port.Dispose()
		a.rec.sink.PortCount(a.id, len(a.ports))
	}
	for _, rest := range a.ports {
		a.tasks = append(a.tasks, a.spawnLoop(rest))
	}

	if existed {
		a.log.Debug("port removed", slog.String("port", name))
	}
	return existed
}

// RecreatePort atomically removes and re-registers a port under the same
// name with a new handler: the registry lock is held across both halves,
// so no concurrent registration can interleave. The returned port is a NEW
// instance with a new id: connections still holding the old instance keep
// routing into a disposed queue and must be re-wired by the caller.
func (a *Actor) RecreatePort(name string, token port.TypeToken, h Handler, opts ...PortOption) (*port.Port, error) {
	if st := a.state.Status().State; st != StateInitialized && st != StateRunning && st != StatePaused {
		return nil, fmt.Errorf("recreate port %q: actor is %s: %w", name, st, ErrInvalidState)
	}

	o := portOpts{buffer: a.defBuffer, timeout: a.defTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	// reject bad options before the existing port is torn down
	if o.buffer <= 0 {
		return nil, &port.ValidationError{
			Op:     "recreate-port",
			Reason: fmt.Sprintf("buffer size must be > 0, got %d", o.buffer),
		}
	}

	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	a.removePortLocked(name)
	return a.createPortLocked(name, token, h, o)
}

// DisconnectPort replaces the named port with a fresh one carrying a no-op
// handler, severing external wiring while keeping the name registered.
func (a *Actor) DisconnectPort(name string, token port.TypeToken) (*port.Port, error) {
	return a.RecreatePort(name, token, func(_ context.Context, msg any) (any, error) {
		return msg, nil
	})
}

// sendGuard gates sends against the actor's ports by lifecycle state.
// Initialized buffers (messages wait for Start); paused, stopped and errored
// actors reject sends by the same rule, surfacing as a closed port.
func (a *Actor) sendGuard() error {
	st := a.state.Status().State
	switch st {
	case StateInitialized, StateRunning:
		return nil
	default:
		return fmt.Errorf("actor is %s: %w", st, port.ErrClosed)
	}
}

// Start moves the actor to running. It is a no-op from any state the
// transition table does not allow (notably the error state, which requires
// Reset first).
func (a *Actor) Start() {
	if err := a.state.Transition(StateRunning, ""); err != nil {
		a.log.Debug("start ignored", slog.String("state", a.state.Status().State.String()))
		return
	}
	a.log.Info("actor started")
}

// Pause suspends message processing. Only legal while running; in-flight
// handlers finish, buffered messages wait for Resume.
func (a *Actor) Pause(reason string) error {
	if !a.state.Is(StateRunning) {
		return fmt.Errorf("pause: actor is %s: %w", a.state.Status().State, ErrInvalidState)
	}
	if err := a.state.Transition(StatePaused, reason); err != nil {
		return err
	}
	a.log.Info("actor paused", slog.String("reason", reason))
	return nil
}

// Resume continues processing after a Pause.
func (a *Actor) Resume() error {
	if !a.state.Is(StatePaused) {
		return fmt.Errorf("resume: actor is %s: %w", a.state.Status().State, ErrInvalidState)
	}
	if err := a.state.Transition(StateRunning, ""); err != nil {
		return err
	}
	a.log.Info("actor resumed")
	return nil
}

// Reset moves an errored actor back to stopped so it can be started again.
func (a *Actor) Reset() error {
	if !a.state.Is(StateError) {
		return fmt.Errorf("reset: actor is %s: %w", a.state.Status().State, ErrInvalidState)
	}
	return a.state.Transition(StateStopped, "reset")
}

// Stop unconditionally stops the actor: state goes to stopped, all mailbox
// loops are cancelled and awaited, all ports disposed. Callable from any
// state; a stopped actor can be started again as long as it still has ports.
func (a *Actor) Stop() {
	_ = a.state.Transition(StateStopped, "")

	a.muPorts.Lock()
	defer a.muPorts.Unlock()
	a.muTasks.Lock()
	defer a.muTasks.Unlock()

	a.stopTasksLocked()
	for _, wp := range a.ports {
		wp.port.Dispose()
	}
	a.log.Info("actor stopped")
}

// Dispose stops the actor and cancels its concurrency scope. Idempotent.
// Cleanup cannot be interrupted by cancellation of the parent context:
// Dispose takes no context and waits on loop completion directly.
func (a *Actor) Dispose() {
	a.disposeOnce.Do(func() {
		a.Stop()
		a.cancel()
		a.log.Debug("actor disposed")
	})
}

// stopTasksLocked cancels and awaits every mailbox loop, then clears the
// task list. Both muPorts and muTasks must be held.
func (a *Actor) stopTasksLocked() {
	for _, t := range a.tasks {
		t.cancel()
	}
	for _, t := range a.tasks {
		<-t.done
	}
	a.tasks = a.tasks[:0]
}

func (a *Actor) spawnLoop(wp *wrappedPort) *task {
	tctx, cancel := context.WithCancel(a.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	go a.mailboxLoop(tctx, wp, t.done)
	return t
}
