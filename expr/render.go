package expr

import (
	"fmt"
	"strings"
)

// Render serializes a lowered IR to a source string valid in the common
// subset of C-family and expression-oriented languages. Binary operations
// are always parenthesized, so the output never depends on a reader's
// precedence table.
func Render(ir IR) string {
	b := strings.Builder{}
	render(&b, ir)
	return b.String()
}

func render(b *strings.Builder, ir IR) {
	switch v := ir.(type) {
	case SymIR:
		if v.Indexed {
			fmt.Fprintf(b, "n[%d]", v.Word)
			return
		}
		b.WriteString("n")
	case IntIR:
		if v.Hex {
			fmt.Fprintf(b, "%#x", v.V)
			return
		}
		b.WriteString(v.V.String())
	case BinIR:
		b.WriteString("(")
		render(b, v.L)
		fmt.Fprintf(b, " %s ", v.Op)
		render(b, v.R)
		b.WriteString(")")
	case UnIR:
		b.WriteString(v.Op.String())
		if _, ok := v.X.(BinIR); ok {
			render(b, v.X)
			return
		}
		b.WriteString("(")
		render(b, v.X)
		b.WriteString(")")
	}
}
