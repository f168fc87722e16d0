package solver

import (
	"errors"
	"fmt"
	"time"
)

// ErrBackendUnavailable is returned when a solver backend cannot be instantiated or run. It is never used to report
// that a model has no solution
var ErrBackendUnavailable = errors.New("solver backend unavailable")

// ErrInvalidAssignment is returned when a backend reports an assignment that does not satisfy the model
var ErrInvalidAssignment = errors.New("assignment violates the model")

type Status uint8

const (
	Unknown    Status = iota // No solution found and infeasibility not proven (e.g. time budget exhausted)
	Optimal                  // Solution proven optimal
	Feasible                 // Solution found but not proven optimal
	Infeasible               // Proven to have no solution
)

var statusNames = [...]string{"OTHER", "OPTIMAL", "FEASIBLE", "INFEASIBLE"}

func (status Status) String() string {
	return statusNames[status]
}

func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// Solved reports whether the status carries an assignment
func (status Status) Solved() bool {
	return status == Optimal || status == Feasible
}

// Solution is the outcome of a single solve. Values are only meaningful when the status is Optimal or Feasible
type Solution struct {
	Status    Status
	Objective int
	values    []int // Indexed by Var
}

func (solution Solution) Value(v Var) int {
	if int(v) >= len(solution.values) {
		return 0
	}
	return solution.values[v]
}

func (solution Solution) Bool(v Var) bool {
	return solution.Value(v) != 0
}

// Solver submits a model to an optimization backend within a wall-clock budget. A single attempt is made per call;
// errors are reserved to backend failures, infeasibility and timeouts are reported through the Solution's status
type Solver interface {
	Solve(model *Model, budget time.Duration) (Solution, error)
}

// solved builds a solution after checking it against the model. Backends whose assignment does not satisfy the model
// report Unknown instead of a wrong schedule
func solved(model *Model, status Status, values []int) (Solution, error) {
	if err := model.Check(values); err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("%w: %w", ErrInvalidAssignment, err)
	}
	return Solution{Status: status, Objective: model.objective.Eval(values), values: values}, nil
}

// trivial handles models that need no backend: models with a conflicting constraint and models without variables
func trivial(model *Model) (Solution, bool) {
	if len(model.Conflicts()) > 0 {
		return Solution{Status: Infeasible}, true
	}
	if model.Variables() == 0 {
		return Solution{Status: Optimal, Objective: model.objective.Constant, values: make([]int, 1)}, true
	}
	return Solution{}, false
}
