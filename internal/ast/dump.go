package ast

import (
	"fmt"
	"strings"
)

// TreeString renders f as an indented tree, one node per line, showing the
// tag, the identifier or index of leaves, the type and the span.
func TreeString(f Formula) string {
	var sb strings.Builder
	dump(&sb, f, 0)
	return sb.String()
}

func dump(sb *strings.Builder, f Formula, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(f.Tag().String())
	switch f := f.(type) {
	case *FreeIdentifier:
		sb.WriteString(" " + f.name)
	case *BoundIdentifier:
		fmt.Fprintf(sb, " [%d]", f.index)
	case *BoundIdentDecl:
		sb.WriteString(" " + f.name)
	case *IntegerLiteral:
		sb.WriteString(" " + f.value.String())
	case *QuantifiedExpression:
		if f.form != FormExplicit {
			sb.WriteString(" " + f.form.String())
		}
	}
	if t := TypeOf(f); t != nil {
		sb.WriteString(" ⦂ " + t.String())
	}
	if span := f.Span(); span.IsValid() {
		sb.WriteString(" @" + span.String())
	}
	sb.WriteString("\n")
	for _, c := range Children(f) {
		dump(sb, c, indent+1)
	}
}
