package model

import (
	"fmt"
	"slices"

	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"

	"github.com/samber/lo"
)

type constraintState struct {
	remaining progress.Remaining
	settings  Settings
	indexer   indexer
	courses   []catalog.Course // Offered courses still to take, sorted by id

	taken      map[string]solver.Var // 1 iff the course is allocated somewhere
	term       map[string]solver.Var // Term of the course's allocation, or the sentinel
	graduation solver.Var

	first, last, sentinel int
}

// allocate creates every variable of the model: one allocation per (course, term, offering) whose offering is eligible
// in the term, plus the course-level and graduation variables
func allocate(model *solver.Model, remaining progress.Remaining, settings Settings) constraintState {
	indexer := newIndexer()
	state := constraintState{
		remaining: remaining,
		settings:  settings,
		indexer:   indexer,
		courses:   remaining.Catalog.Courses(),
		taken:     make(map[string]solver.Var),
		term:      make(map[string]solver.Var),
		first:     settings.StartTerm,
		last:      settings.LastTerm(),
		sentinel:  settings.Sentinel(),
	}

	for _, course := range state.courses {
		offerings := remaining.Catalog.Offerings(course.Id)
		for term := state.first; term <= state.last; term++ {
			for _, offering := range offerings {
				if settings.ParityFiltering && !offering.Parity.Contains(catalog.ParityOf(term)) {
					continue
				}
				indexer.register(model, course.Id, term, offering.Id)
			}
		}
		state.taken[course.Id] = model.NewBool("taken_" + course.Id)
		state.term[course.Id] = model.NewInt("term_"+course.Id, state.first, state.sentinel)
	}
	state.graduation = model.NewInt("graduation", state.first, state.last)

	return state
}

// Σ x over the course's allocations equals taken; mandatory courses are taken exactly once and electives at most once
func cardinalityConstraints(state constraintState) []solver.Constraint {
	constraints := make([]solver.Constraint, 0, 2*len(state.courses))
	for _, course := range state.courses {
		allocations := solver.Sum(state.indexer.OfCourse(course.Id)...)
		constraints = append(constraints, solver.NewEqual("taken_"+course.Id, allocations.Plus(-1, state.taken[course.Id]), 0))

		if course.Category == catalog.Mandatory {
			constraints = append(constraints, solver.NewEqual("mandatory_"+course.Id, allocations, 1))
		} else {
			constraints = append(constraints, solver.NewLessEq("elective_"+course.Id, allocations, 1))
		}
	}
	return constraints
}

// term = Σ t·x + (1 - taken)·sentinel, written as term + Σ (sentinel - t)·x = sentinel since taken = Σ x
func linkageConstraints(state constraintState) []solver.Constraint {
	constraints := make([]solver.Constraint, 0, len(state.courses))
	for _, course := range state.courses {
		expr := solver.Sum(state.term[course.Id])
		for _, variable := range state.indexer.OfCourse(course.Id) {
			_, term, _ := state.indexer.Attributes(variable)
			expr = expr.Plus(state.sentinel-term, variable)
		}
		constraints = append(constraints, solver.NewEqual("link_"+course.Id, expr, state.sentinel))
	}
	return constraints
}

// A course requires its outstanding prerequisites to be taken, in a strictly earlier term.
// The ordering is conditioned on the dependent being taken; linearized, its big-M is term's range (horizon + 1)
func prerequisiteConstraints(state constraintState) []solver.Constraint {
	constraints := []solver.Constraint{}
	for _, course := range state.courses {
		for _, prerequisite := range course.Prerequisites {
			if !state.remaining.Catalog.Offered(prerequisite) {
				continue // Unreachable prerequisites are handled by blockedConstraints
			}
			name := fmt.Sprintf("prerequisite_%v_%v", prerequisite, course.Id)

			// taken[prerequisite] >= taken[course]
			constraints = append(constraints, solver.NewGreaterEq(
				name+"_taken",
				solver.Weighted([]solver.Var{state.taken[prerequisite], state.taken[course.Id]}, []int{1, -1}),
				0,
			))
			// taken[course] => term[course] - term[prerequisite] >= 1
			constraints = append(constraints, solver.NewGreaterEq(
				name+"_order",
				solver.Weighted([]solver.Var{state.term[course.Id], state.term[prerequisite]}, []int{1, -1}),
				1,
			).OnlyIf(solver.Is(state.taken[course.Id])))
		}
	}
	return constraints
}

// At most one allocation per term occupies a given weekly hour
func conflictConstraints(state constraintState) []solver.Constraint {
	constraints := []solver.Constraint{}
	for term := state.first; term <= state.last; term++ {
		occupants := make(map[catalog.Slot][]solver.Var)
		for _, variable := range state.indexer.OfTerm(term) {
			courseId, _, offeringId := state.indexer.Attributes(variable)
			for _, block := range state.remaining.Catalog.Blocks(courseId, offeringId) {
				for _, slot := range block.Slots() {
					occupants[slot] = append(occupants[slot], variable)
				}
			}
		}

		slots := lo.Keys(occupants)
		slices.SortFunc(slots, func(a, b catalog.Slot) int {
			if a.Day != b.Day {
				return int(a.Day) - int(b.Day)
			}
			return a.Hour - b.Hour
		})
		for _, slot := range slots {
			if variables := occupants[slot]; len(variables) > 1 {
				name := fmt.Sprintf("conflict_%v_%v-%02d", term, slot.Day, slot.Hour)
				constraints = append(constraints, solver.NewLessEq(name, solver.Sum(variables...), 1))
			}
		}
	}
	return constraints
}

// The credits allocated to a term never exceed the ceiling
func creditCeilingConstraints(state constraintState) []solver.Constraint {
	constraints := make([]solver.Constraint, 0, state.last-state.first+1)
	for term := state.first; term <= state.last; term++ {
		variables := state.indexer.OfTerm(term)
		credits := lo.Map(variables, func(variable solver.Var, _ int) int {
			return state.credits(variable)
		})
		constraints = append(constraints, solver.NewLessEq(fmt.Sprintf("ceiling_%v", term), solver.Weighted(variables, credits), state.settings.CreditCeiling))
	}
	return constraints
}

// Taken electives cover the remaining minimum of their category, and every taken course covers the remaining program
// credits. Satisfied minimums impose no bound
func categoryConstraints(state constraintState) []solver.Constraint {
	constraints := []solver.Constraint{}
	for _, category := range catalog.ElectiveCategories {
		minimum := state.remaining.Minimums[category]
		if minimum <= 0 {
			continue
		}
		constraints = append(constraints, solver.NewGreaterEq("minimum_"+category.String(), state.weightedTaken(state.remaining.Catalog.Ids(category)), minimum))
	}

	if state.remaining.RemainingCredits > 0 {
		constraints = append(constraints, solver.NewGreaterEq("program_credits", state.weightedTaken(lo.Map(state.courses, func(course catalog.Course, _ int) string { return course.Id })), state.remaining.RemainingCredits))
	}
	return constraints
}

// A gated course may only be allocated from its minimum term on, and once enough credits were earned in strictly
// earlier terms. The credit gate is conditioned on each allocation of the course; linearized, its big-M is the
// threshold minus the credits already earned
func gateConstraints(state constraintState) []solver.Constraint {
	constraints := []solver.Constraint{}
	for _, gate := range state.settings.Gates {
		if _, ok := state.taken[gate.CourseId]; !ok {
			continue
		}

		if gate.MinTerm > state.first {
			constraints = append(constraints, solver.NewGreaterEq(
				"gate_term_"+gate.CourseId,
				solver.Sum(state.term[gate.CourseId]),
				gate.MinTerm,
			).OnlyIf(solver.Is(state.taken[gate.CourseId])))
		}

		if gate.MinCredits <= state.remaining.EarnedCredits {
			continue
		}
		for _, variable := range state.indexer.OfCourse(gate.CourseId) {
			_, term, offeringId := state.indexer.Attributes(variable)
			cumulative := state.cumulativeCredits(term, gate.CourseId)
			constraints = append(constraints, solver.NewGreaterEq(
				fmt.Sprintf("gate_credits_%v_%v_%v", gate.CourseId, term, offeringId),
				cumulative,
				gate.MinCredits,
			).OnlyIf(solver.Is(variable)))
		}
	}
	return constraints
}

// Courses with a prerequisite that can be neither completed nor planned are never taken
func blockedConstraints(state constraintState) []solver.Constraint {
	ids := lo.Keys(state.remaining.Blocked)
	slices.Sort(ids)

	constraints := make([]solver.Constraint, 0, len(ids))
	for _, id := range ids {
		if taken, ok := state.taken[id]; ok {
			constraints = append(constraints, solver.NewEqual("blocked_"+id, solver.Sum(taken), 0))
		}
	}
	return constraints
}

// The graduation term bounds the term of every taken course; linearized, the big-M is the horizon length
func graduationConstraints(state constraintState) []solver.Constraint {
	constraints := make([]solver.Constraint, 0, len(state.courses))
	for _, course := range state.courses {
		constraints = append(constraints, solver.NewGreaterEq(
			"graduation_"+course.Id,
			solver.Weighted([]solver.Var{state.graduation, state.term[course.Id]}, []int{1, -1}),
			0,
		).OnlyIf(solver.Is(state.taken[course.Id])))
	}
	return constraints
}

// objective weighs the graduation term above any front-loading penalty: the penalty Σ (t - first + 1)·x never
// exceeds courses·horizon, so a weight of courses·horizon + 1 keeps the graduation term the primary goal
func objective(state constraintState) solver.Expr {
	if !state.settings.FrontLoad {
		return solver.Sum(state.graduation)
	}

	horizon := state.last - state.first + 1
	weight := len(state.courses)*horizon + 1
	expr := solver.Weighted([]solver.Var{state.graduation}, []int{weight})
	for _, variable := range state.indexer.Variables() {
		_, term, _ := state.indexer.Attributes(variable)
		expr = expr.Plus(term-state.first+1, variable)
	}
	return expr
}

func (state constraintState) credits(variable solver.Var) int {
	courseId, _, _ := state.indexer.Attributes(variable)
	course, _ := state.remaining.Catalog.Lookup(courseId)
	return course.Credits
}

func (state constraintState) weightedTaken(ids []string) solver.Expr {
	return solver.Weighted(
		lo.Map(ids, func(id string, _ int) solver.Var { return state.taken[id] }),
		lo.Map(ids, func(id string, _ int) int {
			course, _ := state.remaining.Catalog.Lookup(id)
			return course.Credits
		}),
	)
}

// cumulativeCredits is the credits earned before the start of term: completed ones plus the ones allocated to
// strictly earlier terms, excluding the given course
func (state constraintState) cumulativeCredits(term int, excluded string) solver.Expr {
	expr := solver.Expr{Constant: state.remaining.EarnedCredits}
	for earlier := state.first; earlier < term; earlier++ {
		for _, variable := range state.indexer.OfTerm(earlier) {
			if courseId, _, _ := state.indexer.Attributes(variable); courseId != excluded {
				expr = expr.Plus(state.credits(variable), variable)
			}
		}
	}
	return expr
}
