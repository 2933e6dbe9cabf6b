package connection

import (
	"context"
	"fmt"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
)

// ConversionRule is a self-describing, type-checked transform step in a
// connection pipeline. CanHandle declares statically which type pairs the
// rule can bridge; Describe is used in validation diagnostics.
type ConversionRule interface {
	CanHandle(from, to port.TypeToken) bool
	Convert(ctx context.Context, msg any) (any, error)
	Describe() string
}

type funcRule struct {
	name      string
	canHandle func(from, to port.TypeToken) bool
	convert   func(ctx context.Context, msg any) (any, error)
}

func (r *funcRule) CanHandle(from, to port.TypeToken) bool { return r.canHandle(from, to) }
func (r *funcRule) Convert(ctx context.Context, msg any) (any, error) {
	return r.convert(ctx, msg)
}
func (r *funcRule) Describe() string { return r.name }

// NewRule builds a ConversionRule from plain functions.
func NewRule(name string, canHandle func(from, to port.TypeToken) bool, convert func(ctx context.Context, msg any) (any, error)) ConversionRule {
	return &funcRule{name: name, canHandle: canHandle, convert: convert}
}

// RuleFor builds a rule bridging exactly IN to OUT with a typed convert
// function.
func RuleFor[IN any, OUT any](name string, convert func(ctx context.Context, in IN) (OUT, error)) ConversionRule {
	from, to := port.TokenFor[IN](), port.TokenFor[OUT]()
	return &funcRule{
		name: fmt.Sprintf("%s (%s -> %s)", name, from.Name(), to.Name()),
		canHandle: func(f, t port.TypeToken) bool {
			return f == from && t == to
		},
		convert: func(ctx context.Context, msg any) (any, error) {
			in, ok := msg.(IN)
			if !ok {
				return nil, &port.ValidationError{
					Op:     "convert",
					Reason: fmt.Sprintf("rule %q: message type %T is not %s", name, msg, from.Name()),
				}
			}
			return convert(ctx, in)
		},
	}
}
