package port

import (
	"context"
	"fmt"
)

// SendValue sends a value of type T, letting the compiler rule out shape
// mismatches before the runtime token check.
func SendValue[T any](ctx context.Context, p *Port, v T) error {
	return p.Send(ctx, v)
}

// ReceiveValue receives the next message and asserts it to T.
func ReceiveValue[T any](ctx context.Context, p *Port) (out T, err error) {
	msg, err := p.Receive(ctx)
	if err != nil {
		return out, err
	}
	v, ok := msg.(T)
	if !ok {
		return out, &ValidationError{
			Op:     "receive",
			Reason: fmt.Sprintf("message type %T is not %s", msg, TokenFor[T]().Name()),
		}
	}
	return v, nil
}
