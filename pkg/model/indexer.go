package model

import "github.com/limaJavier/gradplan/pkg/solver"

// indexer interface is designed to give a unique variable to each allocation (course, term, offering) and vice versa
type indexer interface {
	// Returns the allocation of a variable
	Attributes(variable solver.Var) (courseId string, term int, offeringId string)
	// Returns every allocation variable, in creation order
	Variables() []solver.Var
	// Returns the allocation variables of a course
	OfCourse(courseId string) []solver.Var
	// Returns the allocation variables of a term
	OfTerm(term int) []solver.Var
}

func newIndexer() *registryIndexer {
	return &registryIndexer{
		variables:   make(map[allocation]solver.Var),
		allocations: make(map[solver.Var]allocation),
		byCourse:    make(map[string][]solver.Var),
		byTerm:      make(map[int][]solver.Var),
	}
}
