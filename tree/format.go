package tree

import "strconv"

// formatLength renders a branch length the way Newick writers in this
// codebase have always done: shortest round-trippable decimal form.
func formatLength(l float64) string {
	return strconv.FormatFloat(l, 'g', -1, 64)
}
