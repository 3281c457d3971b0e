package vm

import "fmt"

// TupleEntry is one slot of a tuple. Name is empty for positional entries.
type TupleEntry struct {
	Name  string
	Value Value
}

// Tuple is an ordered list of optionally named entries. Name and position
// lookups address the same slots. When several entries share a name, the
// name resolves to the last of them.
type Tuple struct {
	entries []TupleEntry
	names   map[string]int // name -> 0-based slot
}

// NewTuple creates a tuple holding entries.
func NewTuple(entries ...TupleEntry) *Tuple {
	t := &Tuple{names: make(map[string]int)}
	for _, e := range entries {
		t.append(e)
	}
	return t
}

func (t *Tuple) append(e TupleEntry) {
	t.entries = append(t.entries, e)
	if e.Name != "" {
		t.names[e.Name] = len(t.entries) - 1
	}
}

func (*Tuple) Kind() Kind { return KindTuple }

func (t *Tuple) String() string {
	return render(t, nil)
}

// Len returns the number of entries.
func (t *Tuple) Len() int {
	return len(t.entries)
}

func (t *Tuple) slot(i int64) (int, error) {
	if i <= 0 || i > int64(len(t.entries)) {
		return 0, fmt.Errorf("Tuple index out of bounds: %d", i)
	}
	return int(i - 1), nil
}

// Get returns the entry at 1-based position i.
func (t *Tuple) Get(i int64) (Value, error) {
	s, err := t.slot(i)
	if err != nil {
		return nil, err
	}
	return t.entries[s].Value, nil
}

// Set replaces the entry at 1-based position i.
func (t *Tuple) Set(i int64, v Value) error {
	s, err := t.slot(i)
	if err != nil {
		return err
	}
	t.entries[s].Value = v
	return nil
}

// GetNamed returns the entry called name.
func (t *Tuple) GetNamed(name string) (Value, error) {
	s, ok := t.names[name]
	if !ok {
		return nil, fmt.Errorf("Tuple has no member named '%s'", name)
	}
	return t.entries[s].Value, nil
}

// SetNamed replaces the entry called name. Tuples never gain members
// through assignment.
func (t *Tuple) SetNamed(name string, v Value) error {
	s, ok := t.names[name]
	if !ok {
		return fmt.Errorf("Tuple has no member named '%s'", name)
	}
	t.entries[s].Value = v
	return nil
}

// Entries returns a snapshot of the entries.
func (t *Tuple) Entries() []TupleEntry {
	out := make([]TupleEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Concat returns a new tuple with u's entries, names included, after t's.
func (t *Tuple) Concat(u *Tuple) *Tuple {
	out := NewTuple(t.entries...)
	for _, e := range u.entries {
		out.append(e)
	}
	return out
}
