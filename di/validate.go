package di

// walk states for static validation; the zero map value means unvisited.
const (
	visiting = iota + 1
	visited
)

// Validate statically checks the eager dependency graph reachable from the
// given descriptors, without constructing anything.
//
// It reports:
//   - CircularDependencyError for a cycle made of eager edges only
//   - MalformedDependencyError for declaration entries that are neither
//     eager nor lazy, or lazy thunks yielding nil
//   - ErrNilDescriptor for a nil root
//
// Lazy edges never extend the eager chain; their targets are validated as
// additional roots. A graph whose every cycle crosses a lazy edge validates
// cleanly, matching what Get would accept.
func Validate(roots ...*Descriptor) error {
	w := &walker{state: make(map[*Descriptor]int)}
	w.queue = append(w.queue, roots...)
	for len(w.queue) > 0 {
		d := w.queue[0]
		w.queue = w.queue[1:]
		if d == nil {
			return ErrNilDescriptor
		}
		if err := w.walk(d); err != nil {
			return err
		}
	}
	return nil
}

// walker carries DFS state across the eager-edge walk.
type walker struct {
	state map[*Descriptor]int
	stack []*Descriptor

	// queue holds lazy targets pending validation as roots of their own
	// eager subgraphs.
	queue []*Descriptor
}

func (w *walker) walk(d *Descriptor) error {
	switch w.state[d] {
	case visited:
		return nil
	case visiting:
		return CircularDependencyError{Desc: d, Path: pathNames(w.stack, d)}
	}
	w.state[d] = visiting
	w.stack = append(w.stack, d)
	defer func() {
		w.stack = w.stack[:len(w.stack)-1]
	}()

	decl := d.declaration()
	for _, key := range sortedKeys(decl) {
		dep := decl[key]
		switch dep.Kind() {
		case KindEager:
			if err := w.walk(dep.desc); err != nil {
				return err
			}
		case KindLazy:
			target := dep.thunk()
			if target == nil {
				return MalformedDependencyError{Desc: d, Key: key}
			}
			w.queue = append(w.queue, target)
		default:
			return MalformedDependencyError{Desc: d, Key: key}
		}
	}
	w.state[d] = visited
	return nil
}
