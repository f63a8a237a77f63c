package di

// DependencyKind classifies a declared dependency.
type DependencyKind int

const (
	// KindInvalid marks a malformed dependency: the zero Dependency value,
	// Eager(nil), or Lazy(nil).
	KindInvalid DependencyKind = iota

	// KindEager marks a dependency resolved before the dependent's
	// constructor runs.
	KindEager

	// KindLazy marks a dependency bound into the Context as a deferred
	// Accessor.
	KindLazy
)

// String implements fmt.Stringer.
func (k DependencyKind) String() string {
	switch k {
	case KindEager:
		return "eager"
	case KindLazy:
		return "lazy"
	default:
		return "invalid"
	}
}

// Thunk defers the identity of a dependency target.
//
// Thunks let a declaration reference a descriptor variable that is not
// initialized yet at the point the declaration is written.
type Thunk func() *Descriptor

// Dependency is one declared edge in a Declaration.
//
// Construct values with Eager or Lazy. The zero value is malformed and is
// rejected during resolution and validation with MalformedDependencyError.
type Dependency struct {
	desc  *Descriptor
	thunk Thunk
}

// Eager declares a dependency resolved before the dependent's constructor
// runs. The resolved instance is bound into the Context under the declaring
// key.
func Eager(d *Descriptor) Dependency { return Dependency{desc: d} }

// Lazy declares a dependency whose resolution is deferred behind an
// Accessor. The thunk is evaluated only when the accessor is invoked, never
// at declaration time.
//
// Lazy edges are not cycle-checked at declaration time, which makes them the
// tool for breaking mutual dependencies.
func Lazy(t Thunk) Dependency { return Dependency{thunk: t} }

// Kind classifies the dependency. Eager(nil) and Lazy(nil) are KindInvalid.
func (dep Dependency) Kind() DependencyKind {
	switch {
	case dep.desc != nil:
		return KindEager
	case dep.thunk != nil:
		return KindLazy
	default:
		return KindInvalid
	}
}
