package progress

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limaJavier/gradplan/pkg/catalog"

	"github.com/samber/lo"
)

var ErrInvalidRequirements = errors.New("invalid credit requirements")

// Requirements holds the program's credit targets
type Requirements struct {
	Minimums     map[catalog.Category]int // Credit minimum of each elective category
	TotalCredits int                      // Credits needed to graduate; zero means no overall target
}

// Remaining is what is still to be planned for a student
type Remaining struct {
	Catalog          *catalog.Catalog         // Courses still to take, with completed prerequisites stripped
	Minimums         map[catalog.Category]int // Remaining credit minimum per elective category, never negative
	EarnedCredits    int                      // Credits already earned, over every category
	EarnedByCategory map[catalog.Category]int
	RemainingCredits int                 // Credits still needed to reach the overall target, never negative
	Blocked          map[string][]string // Courses whose prerequisites can be neither completed nor planned, with the missing ids
	Unknown          []string            // Completed ids that are not in the catalog
}

func (requirements Requirements) Validate() error {
	for category, minimum := range requirements.Minimums {
		if !category.Elective() {
			return fmt.Errorf("%w: a credit minimum applies only to elective categories, got %v", ErrInvalidRequirements, category)
		}
		if minimum < 0 {
			return fmt.Errorf("%w: negative minimum for %v", ErrInvalidRequirements, category)
		}
	}
	if requirements.TotalCredits < 0 {
		return fmt.Errorf("%w: negative total credits", ErrInvalidRequirements)
	}
	return nil
}

// Adjust removes the completed courses from the planning universe and credits them against the requirements.
// Completed courses are credited with their original category and weight, whether they are still offered or not
func Adjust(courses *catalog.Catalog, completed []string, requirements Requirements) (Remaining, error) {
	if err := requirements.Validate(); err != nil {
		return Remaining{}, err
	}

	completedSet := make(map[string]bool, len(completed))
	earnedByCategory := make(map[catalog.Category]int)
	earned := 0
	unknown := []string{}

	for _, id := range lo.Uniq(completed) {
		course, ok := courses.Lookup(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		completedSet[id] = true
		earned += course.Credits
		earnedByCategory[course.Category] += course.Credits
	}

	filtered := courses.Without(completedSet)

	blocked := make(map[string][]string)
	for _, course := range filtered.Courses() {
		missing := lo.Filter(course.Prerequisites, func(prerequisite string, _ int) bool { return !filtered.Offered(prerequisite) })
		if len(missing) > 0 {
			blocked[course.Id] = missing
		}
	}

	minimums := make(map[catalog.Category]int, len(catalog.ElectiveCategories))
	for _, category := range catalog.ElectiveCategories {
		minimums[category] = max(0, requirements.Minimums[category]-earnedByCategory[category])
	}

	slices.Sort(unknown)
	return Remaining{
		Catalog:          filtered,
		Minimums:         minimums,
		EarnedCredits:    earned,
		EarnedByCategory: earnedByCategory,
		RemainingCredits: max(0, requirements.TotalCredits-earned),
		Blocked:          blocked,
		Unknown:          unknown,
	}, nil
}

// Requirements returns the requirements left after crediting the completed courses. Adjusting the filtered catalog
// against them with no completed course leaves the catalog, the minimums and the blocked courses unchanged
func (remaining Remaining) Requirements() Requirements {
	return Requirements{
		Minimums:     remaining.Minimums,
		TotalCredits: remaining.RemainingCredits,
	}
}

// Takeable reports whether the course is still to take and not blocked by an unreachable prerequisite
func (remaining Remaining) Takeable(id string) bool {
	_, blocked := remaining.Blocked[id]
	return remaining.Catalog.Offered(id) && !blocked
}
