package solver

import (
	"fmt"
	"slices"
	"time"

	gophersat "github.com/crillab/gophersat/solver"
)

type gophersatSolver struct{}

// NewGophersatSolver returns an in-process pseudo-boolean backend. Integer variables are order encoded
// (v = lo + b1 + ... + bk with b1 >= ... >= bk) and conditional constraints are enforced natively by weighting the
// negation of their condition with the constraint's degree
func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (solver *gophersatSolver) Solve(model *Model, budget time.Duration) (Solution, error) {
	if solution, ok := trivial(model); ok {
		return solution, nil
	}

	encoding := newPBEncoding(model)
	if encoding.count == 0 { // Every variable is fixed by its bounds
		return solved(model, Optimal, encoding.decode(nil))
	}
	constrs, err := encoding.constraints()
	if err != nil {
		return Solution{Status: Unknown}, err
	}
	if constrs == nil {
		return Solution{Status: Infeasible}, nil
	}

	problem := gophersat.ParsePBConstrs(constrs)
	costLits, costWeights := encoding.cost()
	if len(costLits) > 0 {
		problem.SetCostFunc(costLits, costWeights)
	}

	return encoding.optimize(gophersat.New(problem), budget)
}

// optimize runs the search on its own goroutine and keeps the latest incumbent. The search only proves
// optimality when it finishes before the budget; otherwise the best model found so far is reported as feasible.
// The underlying solver cannot be interrupted, so on expiration its goroutine is abandoned and keeps running
// until the search ends, with its remaining results drained and discarded
func (encoding *pbEncoding) optimize(s *gophersat.Solver, budget time.Duration) (Solution, error) {
	results := make(chan gophersat.Result)
	final := make(chan gophersat.Result, 1)
	go func() {
		final <- s.Optimal(results, nil)
	}()

	deadline := time.NewTimer(budget)
	defer deadline.Stop()

	var incumbent []bool
	for {
		select {
		case result, ok := <-results:
			if !ok {
				results = nil // Closed: wait for the final result
				continue
			}
			if result.Status == gophersat.Sat {
				incumbent = slices.Clone(result.Model)
			}
		case result := <-final:
			switch result.Status {
			case gophersat.Unsat:
				return Solution{Status: Infeasible}, nil
			case gophersat.Sat:
				bindings := result.Model
				if len(bindings) == 0 {
					bindings = incumbent
				}
				return solved(encoding.model, Optimal, encoding.decode(bindings))
			default:
				return Solution{Status: Unknown}, nil
			}
		case <-deadline.C:
			if results != nil {
				go func(results <-chan gophersat.Result) {
					for range results {
					}
				}(results)
			}
			if incumbent == nil {
				return Solution{Status: Unknown}, nil
			}
			return solved(encoding.model, Feasible, encoding.decode(incumbent))
		}
	}
}

// pbEncoding maps model variables to pseudo-boolean variables (1-based, as in DIMACS)
type pbEncoding struct {
	model *Model
	first []int // First PB variable of each model variable
	width []int // Number of PB variables of each model variable
	count int
}

func newPBEncoding(model *Model) *pbEncoding {
	encoding := &pbEncoding{
		model: model,
		first: make([]int, len(model.variables)),
		width: make([]int, len(model.variables)),
	}
	for v := 1; v < len(model.variables); v++ {
		variable := model.variables[v]
		encoding.first[v] = encoding.count + 1
		encoding.width[v] = variable.hi - variable.lo
		encoding.count += encoding.width[v]
	}
	return encoding
}

// pbSum is Σ coefs[x]·x + constant over positive PB variables
type pbSum struct {
	coefs    map[int]int
	constant int
}

func (encoding *pbEncoding) expand(expr Expr) pbSum {
	sum := pbSum{coefs: make(map[int]int), constant: expr.Constant}
	for _, term := range expr.Terms {
		variable := encoding.model.variables[term.Var]
		sum.constant += term.Coef * variable.lo
		for k := 0; k < encoding.width[term.Var]; k++ {
			sum.coefs[encoding.first[term.Var]+k] += term.Coef
		}
	}
	return sum
}

func (sum pbSum) addLiteral(weight int, literal int) pbSum {
	if literal > 0 {
		sum.coefs[literal] += weight
	} else { // w·¬x = w - w·x
		sum.coefs[-literal] -= weight
		sum.constant += weight
	}
	return sum
}

// atLeast turns sum >= rhs into a PB constraint with positive weights only. A false second result means the
// constraint always holds
func (sum pbSum) atLeast(rhs int) (gophersat.PBConstr, bool) {
	degree := rhs - sum.constant
	vars := make([]int, 0, len(sum.coefs))
	for x, coef := range sum.coefs {
		if coef != 0 {
			vars = append(vars, x)
		}
	}
	slices.Sort(vars)

	lits := make([]int, 0, len(vars))
	weights := make([]int, 0, len(vars))
	for _, x := range vars {
		coef := sum.coefs[x]
		if coef > 0 {
			lits = append(lits, x)
			weights = append(weights, coef)
		} else { // c·x = c + (-c)·¬x
			lits = append(lits, -x)
			weights = append(weights, -coef)
			degree -= coef
		}
	}
	if degree <= 0 {
		return gophersat.PBConstr{}, false
	}
	return gophersat.PBConstr{Lits: lits, Weights: weights, AtLeast: degree}, true
}

func (encoding *pbEncoding) literal(literal Literal) int {
	if literal.Negated {
		return -encoding.first[literal.Var]
	}
	return encoding.first[literal.Var]
}

// constraints translates the model; a nil result means an unsatisfiable constraint was found
func (encoding *pbEncoding) constraints() ([]gophersat.PBConstr, error) {
	constrs := []gophersat.PBConstr{}
	used := make([]bool, encoding.count+1)
	add := func(constr gophersat.PBConstr, ok bool) bool {
		if !ok {
			return true
		}
		total := 0
		for i, lit := range constr.Lits {
			total += constr.Weights[i]
			used[max(lit, -lit)] = true
		}
		if total < constr.AtLeast {
			return false
		}
		constrs = append(constrs, constr)
		return true
	}

	// Order encoding: b(k+1) => b(k)
	for v := 1; v < len(encoding.model.variables); v++ {
		for k := 1; k < encoding.width[v]; k++ {
			lit := encoding.first[v] + k
			add(gophersat.PBConstr{Lits: []int{lit - 1, -lit}, Weights: []int{1, 1}, AtLeast: 1}, true)
		}
	}

	for _, constraint := range encoding.model.constraints {
		senses := []Sense{constraint.Sense}
		if constraint.Sense == Equal {
			senses = []Sense{LessEq, GreaterEq}
		}
		if constraint.Condition != nil && encoding.model.variables[constraint.Condition.Var].kind != Binary {
			return nil, fmt.Errorf("constraint %v is conditioned on non-binary variable %v", constraint.Name, encoding.model.variables[constraint.Condition.Var].name)
		}

		for _, sense := range senses {
			expr, rhs := constraint.Expr, constraint.Rhs
			if sense == LessEq {
				expr, rhs = expr.Scale(-1), -rhs
			}
			sum := encoding.expand(expr)
			constr, ok := sum.atLeast(rhs)
			if ok && constraint.Condition != nil {
				// The negated condition alone satisfies the constraint
				sum = sum.addLiteral(constr.AtLeast, -encoding.literal(*constraint.Condition))
				constr, ok = sum.atLeast(rhs)
			}
			if !add(constr, ok) {
				return nil, nil
			}
		}
	}

	// PB variables left out of every constraint take their cheapest value
	objective := encoding.expand(encoding.model.objective)
	for x := 1; x <= encoding.count; x++ {
		if used[x] {
			continue
		}
		lit := -x
		if objective.coefs[x] < 0 {
			lit = x
		}
		constrs = append(constrs, gophersat.PBConstr{Lits: []int{lit}, Weights: []int{1}, AtLeast: 1})
	}
	return constrs, nil
}

// cost returns the objective as positive weights over literals; its constant part does not affect the optimum
func (encoding *pbEncoding) cost() ([]gophersat.Lit, []int) {
	objective := encoding.expand(encoding.model.objective)
	vars := make([]int, 0, len(objective.coefs))
	for x, coef := range objective.coefs {
		if coef != 0 {
			vars = append(vars, x)
		}
	}
	slices.Sort(vars)

	lits := make([]gophersat.Lit, 0, len(vars))
	weights := make([]int, 0, len(vars))
	for _, x := range vars {
		if coef := objective.coefs[x]; coef > 0 {
			lits = append(lits, gophersat.IntToLit(int32(x)))
			weights = append(weights, coef)
		} else {
			lits = append(lits, gophersat.IntToLit(int32(-x)))
			weights = append(weights, -coef)
		}
	}
	return lits, weights
}

func (encoding *pbEncoding) decode(bindings []bool) []int {
	values := make([]int, len(encoding.model.variables))
	for v := 1; v < len(encoding.model.variables); v++ {
		values[v] = encoding.model.variables[v].lo
		for k := 0; k < encoding.width[v]; k++ {
			if x := encoding.first[v] + k; x-1 < len(bindings) && bindings[x-1] {
				values[v]++
			}
		}
	}
	return values
}
