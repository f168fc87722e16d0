package model

import (
	"errors"
	"time"

	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"
)

// Plan is the outcome of a planning request. GraduationTerm and Schedule are only set when the status is Optimal or
// Feasible; GraduationTerm is zero when nothing is left to take
type Plan struct {
	Status         solver.Status `json:"status"`
	GraduationTerm int           `json:"graduationTerm,omitempty"`
	Schedule       Schedule      `json:"schedule"`
	Variables      int           `json:"variables"`
	Constraints    int           `json:"constraints"`
}

type Planner interface {
	// Plan builds and solves the model of what remains to take. Infeasibility and exhausted budgets are statuses, not
	// errors
	Plan(remaining progress.Remaining) (Plan, error)

	// Verify re-checks a schedule against the remaining requirements and the planner's settings
	Verify(schedule Schedule, remaining progress.Remaining) error
}

type solverPlanner struct {
	solver   solver.Solver
	settings Settings
}

func NewPlanner(solver solver.Solver, settings Settings) (Planner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &solverPlanner{
		solver:   solver,
		settings: settings,
	}, nil
}

func (planner *solverPlanner) Plan(remaining progress.Remaining) (Plan, error) {
	started := time.Now()
	diagnose(remaining)

	//** Build model
	model := solver.NewModel()
	state := allocate(model, remaining, planner.settings)

	// Constraints functions
	constraints := []func(state constraintState) []solver.Constraint{
		cardinalityConstraints,
		linkageConstraints,
		prerequisiteConstraints,
		conflictConstraints,
		creditCeilingConstraints,
		categoryConstraints,
		gateConstraints,
		blockedConstraints,
		graduationConstraints,
	}
	buildModel(model, constraints, state)
	model.Minimize(objective(state))

	plan := Plan{
		Status:      solver.Unknown,
		Variables:   model.Variables(),
		Constraints: len(model.Constraints()),
	}
	log := logger.With("courses", len(state.courses))
	log.Info().
		Int("variables", plan.Variables).
		Int("constraints", plan.Constraints).
		Strs("conflicts", model.Conflicts()).
		Dur("elapsed", time.Since(started)).
		Msg("model built")

	//** Solve model
	solution, err := planner.solver.Solve(model, planner.settings.TimeBudget)
	if err != nil {
		if errors.Is(err, solver.ErrInvalidAssignment) {
			log.Error().Err(err).Msg("solver returned an invalid assignment")
			return plan, nil
		}
		return plan, err
	}
	plan.Status = solution.Status
	log.Info().Stringer("status", solution.Status).Dur("elapsed", time.Since(started)).Msg("model solved")
	if !solution.Status.Solved() {
		return plan, nil
	}

	//** Decode solution
	plan.Schedule = decode(solution, state.indexer, remaining.Catalog)
	plan.GraduationTerm = plan.Schedule.LastTerm()
	if err := verify(plan.Schedule, remaining, planner.settings); err != nil {
		return Plan{Status: solver.Unknown, Variables: plan.Variables, Constraints: plan.Constraints}, err
	}
	return plan, nil
}

func (planner *solverPlanner) Verify(schedule Schedule, remaining progress.Remaining) error {
	return verify(schedule, remaining, planner.settings)
}

// buildModel runs the constraint families on separate goroutines; the model itself is only written by the caller's
// goroutine, in family order, so that variable and constraint numbering stay deterministic
func buildModel(model *solver.Model, constraints []func(state constraintState) []solver.Constraint, state constraintState) {
	type generated struct {
		family      int
		constraints []solver.Constraint
	}
	constraintsChannel := make(chan generated)

	for family, constraint := range constraints {
		go func() {
			constraintsChannel <- generated{family: family, constraints: constraint(state)}
		}()
	}

	collected := make([][]solver.Constraint, len(constraints))
	for range constraints {
		result := <-constraintsChannel
		collected[result.family] = result.constraints
	}
	for _, family := range collected {
		model.Add(family...)
	}
}

// diagnose logs the issues that make a model infeasible or a plan incomplete before solving
func diagnose(remaining progress.Remaining) {
	if cycle := remaining.Catalog.PrerequisiteCycle(); cycle != nil {
		logger.Warn().Strs("cycle", cycle).Msg("prerequisite cycle among courses still to take")
	}

	available := remaining.Catalog.AvailableCredits()
	for _, category := range catalog.ElectiveCategories {
		if minimum := remaining.Minimums[category]; available[category] < minimum {
			logger.Warn().
				Stringer("category", category).
				Int("available", available[category]).
				Int("minimum", minimum).
				Msg("offered credits cannot meet the category minimum")
		}
	}

	for id, missing := range remaining.Blocked {
		course, _ := remaining.Catalog.Lookup(id)
		if course.Category == catalog.Mandatory {
			logger.Warn().Str("course", id).Strs("missing", missing).Msg("mandatory course has unreachable prerequisites")
		} else {
			logger.Debug().Str("course", id).Strs("missing", missing).Msg("elective course has unreachable prerequisites")
		}
	}

	if len(remaining.Unknown) > 0 {
		logger.Warn().Strs("courses", remaining.Unknown).Msg("completed courses are not in the catalog")
	}
}
