package vm

// controlKind says how a statement finished.
type controlKind int

const (
	ctrlNormal controlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

func (k controlKind) String() string {
	switch k {
	case ctrlBreak:
		return "exit"
	case ctrlContinue:
		return "continue"
	case ctrlReturn:
		return "return"
	}
	return "normal"
}

// control is the completion of a statement. A non-normal control unwinds
// the enclosing statements until the construct that handles it: the
// nearest loop for break and continue, the nearest call for return.
type control struct {
	kind  controlKind
	value Value // returned value for ctrlReturn
}

var normal = control{kind: ctrlNormal}

func (c control) isNormal() bool {
	return c.kind == ctrlNormal
}
