package solver

import (
	"fmt"
	"strings"
)

const termsPerLine = 8

// ToLP renders the model in CPLEX LP format. Variables are written as v<id> and constraints as c<index>, with the
// model names kept as comments; conditional constraints are linearized first
func (model *Model) ToLP() string {
	var builder strings.Builder

	builder.WriteString("\\ variables\n")
	for v := 1; v < len(model.variables); v++ {
		fmt.Fprintf(&builder, "\\ v%d %v\n", v, model.variables[v].name)
	}

	builder.WriteString("Minimize\n obj:")
	if len(model.objective.Terms) == 0 {
		builder.WriteString(" 0 v1")
	} else {
		writeTerms(&builder, model.objective.Terms)
	}
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	linear := model.Linearize()
	if len(linear) == 0 { // LP readers expect at least one row
		lo, _ := model.Bounds(1)
		linear = []Constraint{NewGreaterEq("bound", Sum(1), lo)}
	}
	for i, constraint := range linear {
		if constraint.BigM != 0 {
			fmt.Fprintf(&builder, "\\ %v (big-M %d)\n", constraint.Name, constraint.BigM)
		} else {
			fmt.Fprintf(&builder, "\\ %v\n", constraint.Name)
		}
		fmt.Fprintf(&builder, " c%d:", i+1)
		writeTerms(&builder, constraint.Expr.Terms)
		fmt.Fprintf(&builder, " %v %d\n", constraint.Sense, constraint.Rhs)
	}

	builder.WriteString("Bounds\n")
	for v := 1; v < len(model.variables); v++ {
		if variable := model.variables[v]; variable.kind == Integer {
			fmt.Fprintf(&builder, " %d <= v%d <= %d\n", variable.lo, v, variable.hi)
		}
	}

	for _, section := range []struct {
		header string
		kind   VarKind
	}{{"Binaries", Binary}, {"Generals", Integer}} {
		builder.WriteString(section.header + "\n")
		written := 0
		for v := 1; v < len(model.variables); v++ {
			if model.variables[v].kind != section.kind {
				continue
			}
			fmt.Fprintf(&builder, " v%d", v)
			if written++; written%termsPerLine == 0 {
				builder.WriteString("\n")
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString("End\n")
	return builder.String()
}

func writeTerms(builder *strings.Builder, terms []Term) {
	for i, term := range terms {
		if i > 0 && i%termsPerLine == 0 {
			builder.WriteString("\n   ")
		}
		sign := "+"
		coef := term.Coef
		if coef < 0 {
			sign, coef = "-", -coef
		}
		fmt.Fprintf(builder, " %v %d v%d", sign, coef, term.Var)
	}
}
