package planner

import (
	"strings"
)

// Explain renders a plan tree, one node per line, children indented under their parent.
func Explain(root PlanNode) string {
	var sb strings.Builder
	explain(&sb, root, 0)
	return sb.String()
}

func explain(sb *strings.Builder, n PlanNode, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if depth > 0 {
		sb.WriteString("-> ")
	}
	sb.WriteString(n.String())
	sb.WriteString("  [")
	sb.WriteString(n.Partitioning().String())
	sb.WriteString("] ")
	sb.WriteString(n.OutputSchema().String())
	sb.WriteByte('\n')
	for _, c := range n.Children() {
		explain(sb, c, depth+1)
	}
}
