package di

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Container at New time.
type Option func(*Container)

// WithName sets the container's diagnostic name, used in log events. The
// default is derived from the container ID.
func WithName(name string) Option {
	return func(c *Container) { c.name = name }
}

// WithLogger sets the logger for container events. The default is
// zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// Container resolves descriptors into singleton instances.
//
// Each container is one scope: a descriptor resolves to at most one instance
// per container, and distinct containers never share instances unless one is
// seeded into the other via Register.
//
// All methods are safe for concurrent use. Each Get call is one critical
// section, so concurrent Gets of the same descriptor construct it once.
// Constructors run inside that critical section and therefore must not call
// back into the container directly; they interact with it only through the
// Context they receive, lazy accessors included.
type Container struct {
	mu sync.Mutex

	id   string
	name string
	log  *zap.Logger

	// instances is the registry: append-only under Get, overwritable only
	// via Register.
	instances map[*Descriptor]any

	// building holds descriptors currently under construction; it is empty
	// between top-level calls. stack mirrors it in construction order for
	// cycle diagnostics.
	building map[*Descriptor]struct{}
	stack    []*Descriptor
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		id:        uuid.NewString(),
		log:       zap.NewNop(),
		instances: make(map[*Descriptor]any),
		building:  make(map[*Descriptor]struct{}),
	}
	c.name = "container-" + c.id[:8]
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.log.Debug("container created",
		zap.String("container", c.name),
		zap.String("id", c.id),
	)
	return c
}

// ID returns the container's unique identifier.
func (c *Container) ID() string { return c.id }

// Name returns the container's diagnostic name.
func (c *Container) Name() string { return c.name }

// Register binds an instance to a descriptor without running its
// constructor.
//
// An existing binding is overwritten, which makes Register the override hook
// for seeding test doubles or sharing one instance across containers.
// Registering with a nil descriptor is a no-op.
func (c *Container) Register(d *Descriptor, instance any) {
	if d == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instances[d] = instance
	c.log.Debug("instance registered",
		zap.String("container", c.name),
		zap.String("service", d.Name()),
	)
}

// Resolved reports whether d already has an instance in this container,
// whether constructed by Get or seeded by Register.
func (c *Container) Resolved(d *Descriptor) bool {
	if d == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.instances[d]
	return ok
}

// resolution is the synchronous extent of one top-level Get. Accessors bound
// during it capture the handle: while active they resolve through the
// in-flight call, whose lock is already held; afterwards they take the
// public locking path.
type resolution struct {
	active atomic.Bool
}

// Get resolves d, constructing it and its eager dependency tree as needed.
//
// Instances are constructed at most once per container; later calls return
// the stored instance. Resolution fails with CircularDependencyError when it
// re-enters a service still under construction. An error panicked inside a
// constructor is returned as that error, any other constructor panic is
// wrapped in ConstructionPanicError, and a malformed declaration entry
// reports MalformedDependencyError. All failures leave the container usable
// and the in-progress bookkeeping empty.
func (c *Container) Get(d *Descriptor) (any, error) {
	if d == nil {
		return nil, ErrNilDescriptor
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	res := &resolution{}
	res.active.Store(true)
	defer res.active.Store(false)

	return c.get(d, res)
}

// get runs the resolution algorithm for one descriptor. The caller holds
// c.mu.
func (c *Container) get(d *Descriptor, res *resolution) (any, error) {
	if d == nil {
		return nil, ErrNilDescriptor
	}
	if v, ok := c.instances[d]; ok {
		return v, nil
	}
	if _, busy := c.building[d]; busy {
		err := CircularDependencyError{Desc: d, Path: pathNames(c.stack, d)}
		c.log.Warn("circular dependency detected",
			zap.String("container", c.name),
			zap.String("service", d.Name()),
			zap.Strings("path", err.Path),
		)
		return nil, err
	}

	c.building[d] = struct{}{}
	c.stack = append(c.stack, d)
	defer func() {
		delete(c.building, d)
		c.stack = c.stack[:len(c.stack)-1]
	}()

	ctx, err := c.buildContext(d, res)
	if err != nil {
		return nil, err
	}
	v, err := c.construct(d, ctx)
	if err != nil {
		return nil, err
	}

	c.instances[d] = v
	c.log.Debug("service constructed",
		zap.String("container", c.name),
		zap.String("service", d.Name()),
	)
	return v, nil
}

// buildContext resolves d's declaration into the Context handed to its
// constructor. Keys are processed in sorted order so construction order and
// first-failure are deterministic.
func (c *Container) buildContext(d *Descriptor, res *resolution) (*Context, error) {
	decl := d.declaration()
	if len(decl) == 0 {
		return &Context{}, nil
	}
	entries := make(map[Key]contextEntry, len(decl))
	for _, key := range sortedKeys(decl) {
		dep := decl[key]
		switch dep.Kind() {
		case KindEager:
			v, err := c.get(dep.desc, res)
			if err != nil {
				return nil, err
			}
			entries[key] = contextEntry{value: v, kind: KindEager}
		case KindLazy:
			entries[key] = contextEntry{accessor: c.accessor(dep.thunk, res), kind: KindLazy}
		default:
			return nil, MalformedDependencyError{Desc: d, Key: key}
		}
	}
	return &Context{entries: entries}, nil
}

// accessor binds a lazy thunk to this container and the resolution that
// created it.
func (c *Container) accessor(t Thunk, res *resolution) Accessor {
	return func() (any, error) {
		if res.active.Load() {
			return c.get(t(), res)
		}
		return c.Get(t())
	}
}

// construct invokes the constructor, converting panics at this frame into
// errors so the in-progress bookkeeping unwinds normally.
func (c *Container) construct(d *Descriptor, ctx *Context) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			if e, ok := rec.(error); ok {
				err = e
				return
			}
			err = ConstructionPanicError{Desc: d, Value: rec}
		}
	}()
	return d.construct(ctx), nil
}

// Resolve resolves d on c and returns its instance typed as T.
//
// A type mismatch reports WrongInstanceTypeError.
func Resolve[T any](c *Container, d *Descriptor) (T, error) {
	var zero T
	v, err := c.Get(d)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, WrongInstanceTypeError{
			Desc:     d,
			GotType:  typeName(v),
			WantType: reflect.TypeOf((*T)(nil)).Elem().String(),
		}
	}
	return t, nil
}

// MustResolve resolves d on c typed as T or panics.
func MustResolve[T any](c *Container, d *Descriptor) T {
	t, err := Resolve[T](c, d)
	if err != nil {
		panic(err)
	}
	return t
}

// pathNames renders a construction stack plus the revisited descriptor as a
// name chain.
func pathNames(stack []*Descriptor, last *Descriptor) []string {
	path := make([]string, 0, len(stack)+1)
	for _, d := range stack {
		path = append(path, d.Name())
	}
	return append(path, last.Name())
}

// sortedKeys returns decl's keys in stable order.
func sortedKeys(decl Declaration) []Key {
	keys := make([]Key, 0, len(decl))
	for k := range decl {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
