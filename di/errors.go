package di

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNilDescriptor is returned when resolution is attempted against a nil
	// descriptor, including a lazy thunk that yields nil.
	ErrNilDescriptor = errors.New("di: nil descriptor")
)

// CircularDependencyError is returned when resolving a descriptor re-enters a
// service that is still under construction, either through an eager edge or
// through a lazy accessor invoked inside a constructor.
//
// Desc is the revisited descriptor. Path is the construction chain from the
// root of the call down to the revisit, by descriptor name.
type CircularDependencyError struct {
	Desc *Descriptor
	Path []string
}

// Error implements the error interface.
func (e CircularDependencyError) Error() string {
	// Example: di: circular dependency deadlock on "basket" (basket -> payment -> basket)
	msg := "di: circular dependency deadlock on " + strconv.Quote(e.Desc.Name())
	if len(e.Path) > 0 {
		msg += " (" + strings.Join(e.Path, " -> ") + ")"
	}
	return msg
}

// MalformedDependencyError is returned when a declaration entry is neither
// eager nor lazy: the zero Dependency value, Eager(nil), or Lazy(nil).
//
// Desc is the declaring descriptor, Key the offending entry.
type MalformedDependencyError struct {
	Desc *Descriptor
	Key  Key
}

// Error implements the error interface.
func (e MalformedDependencyError) Error() string {
	// Example: di: malformed dependency "db" declared by "basket"
	return "di: malformed dependency " + strconv.Quote(string(e.Key)) +
		" declared by " + strconv.Quote(e.Desc.Name())
}

// MissingDependencyError is returned when a dependency key is not present in
// a Context.
//
// It is used by TryGetAs to distinguish "missing" from "wrong type".
type MissingDependencyError struct{ Key Key }

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	// Example: di: dependency "db" missing
	return "di: dependency " + strconv.Quote(string(e.Key)) + " missing"
}

// KindMismatchError is returned when an eager getter is used against a lazy
// entry or a lazy getter against an eager one.
type KindMismatchError struct {
	// Key is the dependency key requested.
	Key Key

	// Want is the kind the getter expects, Got the declared kind.
	Want DependencyKind
	Got  DependencyKind
}

// Error implements the error interface.
func (e KindMismatchError) Error() string {
	// Example: di: dependency "db" is lazy, want eager
	return "di: dependency " + strconv.Quote(string(e.Key)) +
		" is " + e.Got.String() + ", want " + e.Want.String()
}

// WrongTypeDependencyError is returned when a dependency exists but its
// instance is of a different type than requested.
type WrongTypeDependencyError struct {
	// Key is the dependency key requested.
	Key Key

	// GotType is reflect.TypeOf(raw).String() for the bound instance.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeDependencyError) Error() string {
	// Example: di: dependency "db" has wrong type (*mypkg.Logger)
	return "di: dependency " + strconv.Quote(string(e.Key)) + " has wrong type (" + e.GotType + ")"
}

// WrongInstanceTypeError is returned by Resolve when the resolved instance is
// not of the requested type.
type WrongInstanceTypeError struct {
	Desc *Descriptor

	// GotType and WantType are the String() forms of the instance type and
	// the requested type parameter.
	GotType  string
	WantType string
}

// Error implements the error interface.
func (e WrongInstanceTypeError) Error() string {
	// Example: di: service "basket" has type *main.DB, want *main.BasketService
	return "di: service " + strconv.Quote(e.Desc.Name()) +
		" has type " + e.GotType + ", want " + e.WantType
}

// ConstructionPanicError is returned when a constructor panics with a
// non-error value. A panicked error value is returned as that error instead.
type ConstructionPanicError struct {
	Desc  *Descriptor
	Value any
}

// Error implements the error interface.
func (e ConstructionPanicError) Error() string {
	return fmt.Sprintf("di: panic constructing %q: %v", e.Desc.Name(), e.Value)
}
