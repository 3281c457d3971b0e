package optimize

import "github.com/chazu/javdin/compiler"

// usedNames collects every referenced name in prog, assignment targets
// included. The census ignores scoping: a name used anywhere keeps every
// declaration of that name.
func usedNames(prog *compiler.Program) map[string]bool {
	used := make(map[string]bool)
	compiler.Inspect(prog, func(node compiler.Node) bool {
		if ref, ok := node.(*compiler.Reference); ok {
			used[ref.Name] = true
		}
		return true
	})
	return used
}
