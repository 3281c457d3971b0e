package vm

import (
	"math"
	"strconv"
	"strings"
)

// formatReal renders a real so that it always reads as a real: 3.0, 2.5,
// 1.0E10. Magnitudes outside [1e-3, 1e7) use scientific notation.
func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(f, 'E', -1, 64) // 1.5E+10
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mant + "E" + strconv.Itoa(e)
}

// FormatValues renders print arguments: each value in canonical form,
// joined by single spaces.
func FormatValues(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// render formats v, printing a container that is already being rendered
// further up as [...] or {...}.
func render(v Value, open map[Value]bool) string {
	switch c := v.(type) {
	case *Array:
		if open[c] {
			return "[...]"
		}
		open = opened(open, c)
		defer delete(open, c)
		parts := make([]string, len(c.elems))
		for i, e := range c.elems {
			parts[i] = render(e, open)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Tuple:
		if open[c] {
			return "{...}"
		}
		open = opened(open, c)
		defer delete(open, c)
		parts := make([]string, len(c.entries))
		for i, e := range c.entries {
			parts[i] = render(e.Value, open)
			if e.Name != "" {
				parts[i] = e.Name + ":=" + parts[i]
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.String()
}

func opened(open map[Value]bool, v Value) map[Value]bool {
	if open == nil {
		open = make(map[Value]bool)
	}
	open[v] = true
	return open
}
