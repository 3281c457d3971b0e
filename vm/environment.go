package vm

import "sort"

// Environment is one frame of variable bindings. Its parent is fixed at
// creation; lookups and assignments walk outward through the chain.
type Environment struct {
	vars   map[string]Value
	parent *Environment
}

// NewEnvironment creates a frame enclosed by parent, which may be nil for
// the program frame.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		vars:   make(map[string]Value),
		parent: parent,
	}
}

// Parent returns the enclosing frame, or nil.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define binds name in this frame, replacing any binding already here.
func (e *Environment) Define(name string, v Value) {
	e.vars[name] = v
}

// Lookup finds the innermost binding for name.
func (e *Environment) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign overwrites the innermost binding for name. It reports false when
// no frame in the chain defines name; no binding is created in that case.
func (e *Environment) Assign(name string, v Value) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return true
		}
	}
	return false
}

// Names returns the names bound in this frame, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
