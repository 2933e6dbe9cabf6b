package connection

import (
	"context"
	"fmt"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
)

// ProtocolAdapter bridges two otherwise incompatible port types with a
// bidirectional encode/decode pair. CanHandle declares the supported type
// pairs; on the routing path only Encode is applied (source shape to target
// shape), Decode exists for the reverse direction.
type ProtocolAdapter interface {
	CanHandle(source, target port.TypeToken) bool
	Encode(ctx context.Context, msg any) (any, error)
	Decode(ctx context.Context, msg any) (any, error)
}

type funcAdapter struct {
	name   string
	a, b   port.TypeToken
	encode func(ctx context.Context, msg any) (any, error)
	decode func(ctx context.Context, msg any) (any, error)
}

func (ad *funcAdapter) CanHandle(source, target port.TypeToken) bool {
	return (source == ad.a && target == ad.b) || (source == ad.b && target == ad.a)
}

func (ad *funcAdapter) Encode(ctx context.Context, msg any) (any, error) {
	return ad.encode(ctx, msg)
}

func (ad *funcAdapter) Decode(ctx context.Context, msg any) (any, error) {
	return ad.decode(ctx, msg)
}

// AdapterFor builds a protocol adapter between A and B from a typed
// encode/decode pair.
func AdapterFor[A any, B any](name string, encode func(ctx context.Context, a A) (B, error), decode func(ctx context.Context, b B) (A, error)) ProtocolAdapter {
	return &funcAdapter{
		name: name,
		a:    port.TokenFor[A](),
		b:    port.TokenFor[B](),
		encode: func(ctx context.Context, msg any) (any, error) {
			a, ok := msg.(A)
			if !ok {
				return nil, &port.ValidationError{
					Op:     "encode",
					Reason: fmt.Sprintf("adapter %q: message type %T is not %s", name, msg, port.TokenFor[A]().Name()),
				}
			}
			return encode(ctx, a)
		},
		decode: func(ctx context.Context, msg any) (any, error) {
			b, ok := msg.(B)
			if !ok {
				return nil, &port.ValidationError{
					Op:     "decode",
					Reason: fmt.Sprintf("adapter %q: message type %T is not %s", name, msg, port.TokenFor[B]().Name()),
				}
			}
			return decode(ctx, b)
		},
	}
}
