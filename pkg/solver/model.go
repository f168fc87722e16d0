package solver

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Var identifies a decision variable of a Model. Identifiers start at 1
type Var int

type VarKind uint8

const (
	Binary VarKind = iota
	Integer
)

type variable struct {
	name   string
	kind   VarKind
	lo, hi int
}

type Term struct {
	Var  Var
	Coef int
}

// Expr is an integer linear expression: Σ coef·var + Constant
type Expr struct {
	Terms    []Term
	Constant int
}

// Sum returns the expression adding up the given variables
func Sum(vars ...Var) Expr {
	return Expr{Terms: lo.Map(vars, func(v Var, _ int) Term { return Term{Var: v, Coef: 1} })}
}

// Weighted returns Σ coefs[i]·vars[i]
func Weighted(vars []Var, coefs []int) Expr {
	if len(vars) != len(coefs) {
		panic(fmt.Sprintf("weighted expression requires as many coefficients as variables: %v != %v", len(vars), len(coefs)))
	}
	return Expr{Terms: lo.Map(vars, func(v Var, i int) Term { return Term{Var: v, Coef: coefs[i]} })}
}

func (expr Expr) Plus(coef int, v Var) Expr {
	terms := append(slices.Clone(expr.Terms), Term{Var: v, Coef: coef})
	return Expr{Terms: terms, Constant: expr.Constant}
}

func (expr Expr) Add(other Expr) Expr {
	terms := append(slices.Clone(expr.Terms), other.Terms...)
	return Expr{Terms: terms, Constant: expr.Constant + other.Constant}
}

func (expr Expr) Scale(factor int) Expr {
	return Expr{
		Terms:    lo.Map(expr.Terms, func(term Term, _ int) Term { return Term{Var: term.Var, Coef: term.Coef * factor} }),
		Constant: expr.Constant * factor,
	}
}

func (expr Expr) Offset(constant int) Expr {
	return Expr{Terms: slices.Clone(expr.Terms), Constant: expr.Constant + constant}
}

// normalized merges repeated variables, drops null coefficients and sorts terms by variable
func (expr Expr) normalized() Expr {
	coefs := make(map[Var]int, len(expr.Terms))
	for _, term := range expr.Terms {
		coefs[term.Var] += term.Coef
	}
	terms := make([]Term, 0, len(coefs))
	for v, coef := range coefs {
		if coef != 0 {
			terms = append(terms, Term{Var: v, Coef: coef})
		}
	}
	slices.SortFunc(terms, func(a, b Term) int { return int(a.Var) - int(b.Var) })
	return Expr{Terms: terms, Constant: expr.Constant}
}

// Eval evaluates the expression under values indexed by Var
func (expr Expr) Eval(values []int) int {
	return lo.Reduce(expr.Terms, func(sum int, term Term, _ int) int { return sum + term.Coef*values[term.Var] }, expr.Constant)
}

type Sense uint8

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (sense Sense) String() string {
	return [...]string{"<=", ">=", "="}[sense]
}

// Literal is a possibly negated binary variable
type Literal struct {
	Var     Var
	Negated bool
}

func Is(v Var) Literal  { return Literal{Var: v} }
func Not(v Var) Literal { return Literal{Var: v, Negated: true} }

func (literal Literal) holds(values []int) bool {
	return (values[literal.Var] != 0) != literal.Negated
}

// Constraint is Expr Sense Rhs, optionally enforced only when Condition holds
type Constraint struct {
	Name      string
	Expr      Expr
	Sense     Sense
	Rhs       int
	Condition *Literal
	BigM      int // Set by Linearize on constraints derived from a conditional one
}

func NewLessEq(name string, expr Expr, rhs int) Constraint {
	return Constraint{Name: name, Expr: expr, Sense: LessEq, Rhs: rhs}
}

func NewGreaterEq(name string, expr Expr, rhs int) Constraint {
	return Constraint{Name: name, Expr: expr, Sense: GreaterEq, Rhs: rhs}
}

func NewEqual(name string, expr Expr, rhs int) Constraint {
	return Constraint{Name: name, Expr: expr, Sense: Equal, Rhs: rhs}
}

// OnlyIf makes the constraint conditional on the literal
func (constraint Constraint) OnlyIf(literal Literal) Constraint {
	constraint.Condition = &literal
	return constraint
}

func (constraint Constraint) satisfied(values []int) bool {
	if constraint.Condition != nil && !constraint.Condition.holds(values) {
		return true
	}
	lhs := constraint.Expr.Eval(values)
	switch constraint.Sense {
	case LessEq:
		return lhs <= constraint.Rhs
	case GreaterEq:
		return lhs >= constraint.Rhs
	default:
		return lhs == constraint.Rhs
	}
}

// Model is a backend-neutral integer program: bounded variables, linear (possibly conditional) constraints and a linear objective to minimize
type Model struct {
	variables   []variable // Index 0 is unused so that Var values index it directly
	constraints []Constraint
	objective   Expr
	conflicts   []string // Names of constraints that no assignment can satisfy
}

func NewModel() *Model {
	return &Model{variables: make([]variable, 1)}
}

func (model *Model) NewBool(name string) Var {
	model.variables = append(model.variables, variable{name: name, kind: Binary, lo: 0, hi: 1})
	return Var(len(model.variables) - 1)
}

func (model *Model) NewInt(name string, lo, hi int) Var {
	if hi < lo {
		panic(fmt.Sprintf("empty domain [%v, %v] for variable %v", lo, hi, name))
	}
	model.variables = append(model.variables, variable{name: name, kind: Integer, lo: lo, hi: hi})
	return Var(len(model.variables) - 1)
}

// Add normalizes and records constraints. Constraints that always hold are discarded; constraints that never hold make
// the model infeasible, or force their condition to be false when they have one
func (model *Model) Add(constraints ...Constraint) {
	for _, constraint := range constraints {
		expr := constraint.Expr.normalized()
		constraint.Rhs -= expr.Constant
		constraint.Expr = Expr{Terms: expr.Terms}

		if constraint.Sense == Equal {
			lessEq, greaterEq := constraint, constraint
			lessEq.Sense, greaterEq.Sense = LessEq, GreaterEq
			alwaysLessEq, neverLessEq := model.decided(lessEq)
			alwaysGreaterEq, neverGreaterEq := model.decided(greaterEq)
			if alwaysLessEq && alwaysGreaterEq {
				continue
			} else if neverLessEq || neverGreaterEq {
				model.refute(constraint)
				continue
			}
		} else {
			always, never := model.decided(constraint)
			if always {
				continue
			} else if never {
				model.refute(constraint)
				continue
			}
		}

		model.constraints = append(model.constraints, constraint)
	}
}

// refute records a constraint that cannot hold: its condition, if any, must be false
func (model *Model) refute(constraint Constraint) {
	if constraint.Condition == nil {
		model.conflicts = append(model.conflicts, constraint.Name)
		return
	}
	literal := *constraint.Condition
	name := constraint.Name + "_refuted"
	if literal.Negated {
		model.Add(NewGreaterEq(name, Sum(literal.Var), 1))
	} else {
		model.Add(NewLessEq(name, Sum(literal.Var), 0))
	}
}

// decided tells whether an inequality holds for every assignment, or for none, given the variables' bounds
func (model *Model) decided(constraint Constraint) (always bool, never bool) {
	lo, hi := model.Range(constraint.Expr)
	switch constraint.Sense {
	case LessEq:
		return hi <= constraint.Rhs, lo > constraint.Rhs
	case GreaterEq:
		return lo >= constraint.Rhs, hi < constraint.Rhs
	default:
		return lo == hi && lo == constraint.Rhs, lo > constraint.Rhs || hi < constraint.Rhs
	}
}

// Range returns the minimum and maximum values the expression can take within the variables' bounds
func (model *Model) Range(expr Expr) (lo int, hi int) {
	lo, hi = expr.Constant, expr.Constant
	for _, term := range expr.Terms {
		variable := model.variables[term.Var]
		if term.Coef > 0 {
			lo += term.Coef * variable.lo
			hi += term.Coef * variable.hi
		} else {
			lo += term.Coef * variable.hi
			hi += term.Coef * variable.lo
		}
	}
	return lo, hi
}

func (model *Model) Minimize(expr Expr) {
	model.objective = expr.normalized()
}

func (model *Model) Objective() Expr {
	return model.objective
}

func (model *Model) Constraints() []Constraint {
	return model.constraints
}

// Conflicts returns the names of the constraints found unsatisfiable while building the model
func (model *Model) Conflicts() []string {
	return model.conflicts
}

// Variables returns the number of variables
func (model *Model) Variables() int {
	return len(model.variables) - 1
}

func (model *Model) Name(v Var) string {
	return model.variables[v].name
}

func (model *Model) Kind(v Var) VarKind {
	return model.variables[v].kind
}

func (model *Model) Bounds(v Var) (lo int, hi int) {
	return model.variables[v].lo, model.variables[v].hi
}

// Check verifies that values (indexed by Var) respect every bound and constraint of the model
func (model *Model) Check(values []int) error {
	if len(values) != len(model.variables) {
		return fmt.Errorf("expected %v values, got %v", len(model.variables)-1, len(values)-1)
	}
	for v := 1; v < len(model.variables); v++ {
		variable := model.variables[v]
		if values[v] < variable.lo || values[v] > variable.hi {
			return fmt.Errorf("variable %v = %v is out of [%v, %v]", variable.name, values[v], variable.lo, variable.hi)
		}
	}
	for _, constraint := range model.constraints {
		if !constraint.satisfied(values) {
			return fmt.Errorf("constraint %v is violated", constraint.Name)
		}
	}
	return nil
}
