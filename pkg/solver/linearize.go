package solver

// Linearize rewrites every conditional constraint into big-M inequalities so that purely linear backends can take them.
// The constant of each inequality is the largest slack its expression can need given the variables' bounds:
//
//	l ⇒ expr >= rhs   becomes   expr >= rhs - M·(1 - l)   with M = rhs - min(expr)
//	l ⇒ expr <= rhs   becomes   expr <= rhs + M·(1 - l)   with M = max(expr) - rhs
//
// where (1 - l) reads l for a negated literal. Equalities are split into both inequalities
func (model *Model) Linearize() []Constraint {
	linear := make([]Constraint, 0, len(model.constraints))
	for _, constraint := range model.constraints {
		if constraint.Condition == nil {
			linear = append(linear, constraint)
			continue
		}

		if constraint.Sense == Equal {
			lessEq, greaterEq := constraint, constraint
			lessEq.Sense, greaterEq.Sense = LessEq, GreaterEq
			lessEq.Name, greaterEq.Name = constraint.Name+"_le", constraint.Name+"_ge"
			linear = append(linear, model.bigM(lessEq)...)
			linear = append(linear, model.bigM(greaterEq)...)
		} else {
			linear = append(linear, model.bigM(constraint)...)
		}
	}
	return linear
}

func (model *Model) bigM(constraint Constraint) []Constraint {
	literal := *constraint.Condition
	lo, hi := model.Range(constraint.Expr)

	var m int
	if constraint.Sense == GreaterEq {
		m = constraint.Rhs - lo
	} else {
		m = hi - constraint.Rhs
	}
	if m <= 0 { // The inequality holds regardless of the condition
		return nil
	}

	// Slack term: M·(1 - l) for a positive literal, M·l for a negated one
	slackCoef, slackConstant := -m, m
	if literal.Negated {
		slackCoef, slackConstant = m, 0
	}
	if constraint.Sense == LessEq {
		slackCoef, slackConstant = -slackCoef, -slackConstant
	}

	expr := constraint.Expr.Plus(slackCoef, literal.Var).normalized()
	return []Constraint{{
		Name:  constraint.Name,
		Expr:  Expr{Terms: expr.Terms},
		Sense: constraint.Sense,
		Rhs:   constraint.Rhs - slackConstant,
		BigM:  m,
	}}
}
