package di

import (
	"reflect"
	"sort"
)

// Accessor is a zero-argument handle to a lazily declared dependency.
//
// Invoking an accessor resolves its target through the container that built
// it. Inside the constructor that received it, resolution joins the
// in-flight Get call and the circular-dependency guard applies; after that
// call has returned, the accessor behaves exactly like Container.Get and may
// be invoked from any goroutine.
type Accessor func() (any, error)

// contextEntry is one bound dependency inside a Context.
type contextEntry struct {
	value    any
	accessor Accessor
	kind     DependencyKind
}

// Context carries a descriptor's resolved dependencies into its constructor.
//
// Eager keys are bound to constructed instances, lazy keys to Accessors. A
// Context is built per construction and is read-only.
//
// Typed retrieval is available via GetAs / TryGetAs / MustGetAs for eager
// keys and AccessorAs / MustAccessorAs for lazy ones.
type Context struct {
	entries map[Key]contextEntry
}

// Has reports whether key was declared, regardless of kind.
func (c *Context) Has(key Key) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[key]
	return ok
}

// Kind reports the declared kind for key, or KindInvalid if the key is
// absent.
func (c *Context) Kind(key Key) DependencyKind {
	if c == nil {
		return KindInvalid
	}
	return c.entries[key].kind
}

// Keys returns the declared keys in sorted order.
func (c *Context) Keys() []Key {
	if c == nil || len(c.entries) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the eager instance bound under key.
//
// ok is false if the key is missing or declared lazy.
func (c *Context) Get(key Key) (any, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok || e.kind != KindEager {
		return nil, false
	}
	return e.value, true
}

// Accessor returns the accessor bound under key.
//
// ok is false if the key is missing or declared eager.
func (c *Context) Accessor(key Key) (Accessor, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok || e.kind != KindLazy {
		return nil, false
	}
	return e.accessor, true
}

// GetAs returns the eager dependency under key typed as D.
//
// ok is false if the key is missing, declared lazy, or the bound instance is
// not a D.
func GetAs[D any](ctx *Context, key Key) (D, bool) {
	var zero D
	raw, ok := ctx.Get(key)
	if !ok || raw == nil {
		return zero, false
	}
	d, ok := raw.(D)
	if !ok {
		return zero, false
	}
	return d, true
}

// TryGetAs returns the eager dependency under key typed as D.
//
// It returns:
//   - MissingDependencyError if the key is not present
//   - KindMismatchError if the key is declared lazy
//   - WrongTypeDependencyError if the bound instance is not a D
//
// It avoids fmt.Errorf so failure paths stay inexpensive.
func TryGetAs[D any](ctx *Context, key Key) (D, error) {
	var zero D
	if !ctx.Has(key) {
		return zero, MissingDependencyError{Key: key}
	}
	if k := ctx.Kind(key); k != KindEager {
		return zero, KindMismatchError{Key: key, Want: KindEager, Got: k}
	}
	raw, _ := ctx.Get(key)
	d, ok := raw.(D)
	if !ok {
		return zero, WrongTypeDependencyError{Key: key, GotType: typeName(raw)}
	}
	return d, nil
}

// MustGetAs returns the eager dependency under key typed as D or panics.
//
// The panic value is the error TryGetAs would return, so a failure inside a
// constructor surfaces from Container.Get as that error.
func MustGetAs[D any](ctx *Context, key Key) D {
	d, err := TryGetAs[D](ctx, key)
	if err != nil {
		panic(err)
	}
	return d
}

// AccessorAs returns the lazy dependency's accessor with its result typed as
// D.
//
// ok is false if the key is missing or declared eager. The returned func
// reports WrongTypeDependencyError if the resolved instance is not a D.
func AccessorAs[D any](ctx *Context, key Key) (func() (D, error), bool) {
	acc, ok := ctx.Accessor(key)
	if !ok {
		return nil, false
	}
	return func() (D, error) {
		var zero D
		raw, err := acc()
		if err != nil {
			return zero, err
		}
		d, ok := raw.(D)
		if !ok {
			return zero, WrongTypeDependencyError{Key: key, GotType: typeName(raw)}
		}
		return d, nil
	}, true
}

// MustAccessorAs returns a typed accessor that panics on any failure.
//
// It panics immediately if the key is missing or declared eager; the
// returned func panics if resolution fails or the instance is not a D.
func MustAccessorAs[D any](ctx *Context, key Key) func() D {
	if !ctx.Has(key) {
		panic(MissingDependencyError{Key: key})
	}
	if k := ctx.Kind(key); k != KindLazy {
		panic(KindMismatchError{Key: key, Want: KindLazy, Got: k})
	}
	typed, _ := AccessorAs[D](ctx, key)
	return func() D {
		d, err := typed()
		if err != nil {
			panic(err)
		}
		return d
	}
}

// typeName names a value's dynamic type for error messages.
func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
