package model

import (
	"fmt"

	"github.com/limaJavier/gradplan/pkg/solver"
)

type allocation struct {
	courseId   string
	term       int
	offeringId string
}

// registryIndexer hands out model variables as allocations are registered; unlike a dense index it only holds the
// allocations that are eligible
type registryIndexer struct {
	variables   map[allocation]solver.Var
	allocations map[solver.Var]allocation
	ordered     []solver.Var
	byCourse    map[string][]solver.Var
	byTerm      map[int][]solver.Var
}

func (indexer *registryIndexer) register(model *solver.Model, courseId string, term int, offeringId string) solver.Var {
	key := allocation{courseId: courseId, term: term, offeringId: offeringId}
	if _, ok := indexer.variables[key]; ok {
		panic(fmt.Sprintf("allocation %v must be registered only once", key))
	}

	variable := model.NewBool(fmt.Sprintf("x_%v_%v_%v", courseId, term, offeringId))
	indexer.variables[key] = variable
	indexer.allocations[variable] = key
	indexer.ordered = append(indexer.ordered, variable)
	indexer.byCourse[courseId] = append(indexer.byCourse[courseId], variable)
	indexer.byTerm[term] = append(indexer.byTerm[term], variable)
	return variable
}

func (indexer *registryIndexer) Attributes(variable solver.Var) (courseId string, term int, offeringId string) {
	key, ok := indexer.allocations[variable]
	if !ok {
		panic(fmt.Sprintf("variable %v is not an allocation", variable))
	}
	return key.courseId, key.term, key.offeringId
}

func (indexer *registryIndexer) Variables() []solver.Var {
	return indexer.ordered
}

func (indexer *registryIndexer) OfCourse(courseId string) []solver.Var {
	return indexer.byCourse[courseId]
}

func (indexer *registryIndexer) OfTerm(term int) []solver.Var {
	return indexer.byTerm[term]
}
