// Package reflector caches reflective type lookups so typed ports and
// handlers can cheaply resolve a stable, qualified name for any Go type.
package reflector

import (
	"reflect"
	"sync"
)

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo identifies a Go type at runtime. Two TypeInfo values are equal
// iff they describe the same type; the zero value describes no type.
type TypeInfo struct {
	Name string
	Type reflect.Type
}

// Of resolves the TypeInfo for a value. Pointer types resolve to their
// element type, so Of(&Foo{}) and Of(Foo{}) agree.
func Of(x any) TypeInfo {
	return ForType(reflect.TypeOf(x))
}

// For resolves the TypeInfo for T without needing a value of T.
func For[T any]() TypeInfo {
	return ForType(reflect.TypeOf((*T)(nil)).Elem())
}

// ForType resolves and caches the TypeInfo for a reflect.Type.
func ForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	orig := t
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if pkg := t.PkgPath(); pkg != "" {
		name = pkg + "." + name
	} else if name == "" {
		// unnamed types (slices, maps, funcs) fall back to the syntax form
		name = t.String()
	}

	ti = TypeInfo{Name: name, Type: t}

	muCache.Lock()
	cache[orig] = ti
	muCache.Unlock()
	return ti
}
