package vm

import "fmt"

// MaxArrayLength bounds implicit growth through index assignment.
const MaxArrayLength = 1 << 24

// Array is a 1-indexed, growable sequence. Reading past the end yields
// none; writing past the end grows the array and fills the gap with none.
type Array struct {
	elems []Value
}

// NewArray creates an array holding elems.
func NewArray(elems ...Value) *Array {
	a := &Array{elems: make([]Value, len(elems))}
	copy(a.elems, elems)
	return a
}

func (*Array) Kind() Kind { return KindArray }

func (a *Array) String() string {
	return render(a, nil)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.elems)
}

func checkArrayIndex(i int64) error {
	if i <= 0 {
		return fmt.Errorf("Array index out of bounds: %d (indices must be >= 1)", i)
	}
	return nil
}

// Get returns the element at 1-based index i.
func (a *Array) Get(i int64) (Value, error) {
	if err := checkArrayIndex(i); err != nil {
		return nil, err
	}
	if i > int64(len(a.elems)) {
		return None, nil
	}
	return a.elems[i-1], nil
}

// Set stores v at 1-based index i, growing the array when needed.
func (a *Array) Set(i int64, v Value) error {
	if err := checkArrayIndex(i); err != nil {
		return err
	}
	if i > MaxArrayLength {
		return fmt.Errorf("Array index %d exceeds the maximum array length %d", i, MaxArrayLength)
	}
	for int64(len(a.elems)) < i {
		a.elems = append(a.elems, None)
	}
	a.elems[i-1] = v
	return nil
}

// Elements returns a snapshot of the elements.
func (a *Array) Elements() []Value {
	out := make([]Value, len(a.elems))
	copy(out, a.elems)
	return out
}

// Concat returns a new array with b's elements after a's.
func (a *Array) Concat(b *Array) *Array {
	out := make([]Value, 0, len(a.elems)+len(b.elems))
	out = append(out, a.elems...)
	out = append(out, b.elems...)
	return &Array{elems: out}
}
