package di

import "fmt"

// Key identifies a dependency within a Declaration and the Context built
// from it.
//
// Keys are local to the declaring descriptor and are typically defined as
// package-level constants to avoid typos.
//
// Example:
//
//	const (
//	  KeyDB     di.Key = "db"
//	  KeyBasket di.Key = "basket"
//	)
type Key string

// Declaration maps local dependency keys to declared dependencies.
//
// A nil Declaration means zero dependencies.
type Declaration map[Key]Dependency

// DeclarationFunc defers a Declaration behind a zero-argument function.
//
// Deferral solves declaration-order problems: two package-level descriptors
// may reference each other inside their declaration funcs even though
// neither variable is initialized when the other's Define runs.
type DeclarationFunc func() Declaration

// Descriptor identifies a constructible service.
//
// A descriptor is an identity token: containers key instances by descriptor
// pointer, so two descriptors defined with the same name are still distinct
// services. The name exists for logs and error messages only.
type Descriptor struct {
	name      string
	construct func(*Context) any
	deps      DeclarationFunc
}

// DescriptorOption configures a Descriptor at Define time.
type DescriptorOption func(*Descriptor)

// WithDeps attaches a fixed dependency declaration.
func WithDeps(decl Declaration) DescriptorOption {
	return func(d *Descriptor) {
		d.deps = func() Declaration { return decl }
	}
}

// WithDepsFunc attaches a deferred dependency declaration.
//
// fn is invoked each time the descriptor is resolved or validated, never at
// Define time.
func WithDepsFunc(fn DeclarationFunc) DescriptorOption {
	return func(d *Descriptor) { d.deps = fn }
}

// Define creates a descriptor for a service of type T.
//
// ctor receives the dependency Context built from the descriptor's
// declaration and returns the constructed instance. Options are applied in
// order, so a later WithDeps/WithDepsFunc overrides an earlier one.
//
// Define panics if ctor is nil.
func Define[T any](name string, ctor func(*Context) T, opts ...DescriptorOption) *Descriptor {
	if ctor == nil {
		panic(fmt.Errorf("di: Define %q: nil constructor", name))
	}
	d := &Descriptor{
		name:      name,
		construct: func(ctx *Context) any { return ctor(ctx) },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Name returns the descriptor's diagnostic name. It is nil-safe.
func (d *Descriptor) Name() string {
	if d == nil {
		return "<nil>"
	}
	return d.name
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string { return "di.Descriptor(" + d.Name() + ")" }

// declaration evaluates the dependency declaration, if any.
func (d *Descriptor) declaration() Declaration {
	if d.deps == nil {
		return nil
	}
	return d.deps()
}
