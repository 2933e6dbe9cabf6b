package port

import (
	"github.com/SolaceHarmony/SolaceCore-sub002/internal/reflector"
)

// TypeToken is a runtime-checkable descriptor of the message type a port
// carries. Tokens are comparable: two tokens are equal iff they describe the
// same Go type. The zero token describes no type and is rejected by New.
type TypeToken struct {
	info reflector.TypeInfo
}

// TokenFor returns the token for type T.
func TokenFor[T any]() TypeToken {
	return TypeToken{info: reflector.For[T]()}
}

// TokenOf returns the token for the dynamic type of v.
func TokenOf(v any) TypeToken {
	return TypeToken{info: reflector.Of(v)}
}

// Name returns the qualified type name, used in diagnostics.
func (t TypeToken) Name() string { return t.info.Name }

// IsZero reports whether the token describes no type.
func (t TypeToken) IsZero() bool { return t.info.Type == nil }

// Matches reports whether v can be carried by a port with this token.
// A nil message never matches. The message type is resolved through the
// same reflector lookup that built the token, so pointer messages agree
// with their element type the way token construction does.
func (t TypeToken) Matches(v any) bool {
	if v == nil || t.info.Type == nil {
		return false
	}
	rt := reflector.Of(v).Type
	if rt == t.info.Type {
		return true
	}
	return rt.AssignableTo(t.info.Type)
}

func (t TypeToken) String() string { return t.info.Name }
