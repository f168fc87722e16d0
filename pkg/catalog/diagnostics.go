package catalog

import (
	"slices"

	"github.com/samber/lo"
)

// PrerequisiteCycle returns a prerequisite cycle among offered courses as a path whose first and last ids are equal,
// or nil when the prerequisite graph is acyclic. A cycle makes every course on it untakeable
func (catalog *Catalog) PrerequisiteCycle() []string {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(catalog.offered))
	path := []string{}

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = visiting
		path = append(path, id)

		for _, prerequisite := range catalog.courses[id].Prerequisites {
			if !catalog.Offered(prerequisite) {
				continue
			}
			switch state[prerequisite] {
			case visiting:
				start := slices.Index(path, prerequisite)
				return append(slices.Clone(path[start:]), prerequisite)
			case unvisited:
				if cycle := visit(prerequisite); cycle != nil {
					return cycle
				}
			}
		}

		state[id] = visited
		path = path[:len(path)-1]
		return nil
	}

	for _, id := range catalog.offered {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// AvailableCredits sums, per category, the credits of the offered courses
func (catalog *Catalog) AvailableCredits() map[Category]int {
	return lo.Reduce(catalog.offered, func(credits map[Category]int, id string, _ int) map[Category]int {
		course := catalog.courses[id]
		credits[course.Category] += course.Credits
		return credits
	}, map[Category]int{})
}
