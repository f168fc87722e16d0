package model

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/limaJavier/gradplan/pkg/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAttributes(t *testing.T) {
	for range 10 {
		//** Arrange
		courses := rand.Intn(20) + 1
		terms := rand.Intn(14) + 1
		offerings := rand.Intn(4) + 1
		model := solver.NewModel()
		indexer := newIndexer()

		//** Act
		for course := range courses {
			for term := 1; term <= terms; term++ {
				for offering := range offerings {
					if rand.Intn(3) == 0 { // Ineligible allocation
						continue
					}
					indexer.register(model, fmt.Sprint("C", course), term, fmt.Sprint("T", offering))
				}
			}
		}

		//** Assert
		assert.Equal(t, len(indexer.Variables()), model.Variables())
		perCourse, perTerm := 0, 0
		for course := range courses {
			perCourse += len(indexer.OfCourse(fmt.Sprint("C", course)))
		}
		for term := 1; term <= terms; term++ {
			perTerm += len(indexer.OfTerm(term))
		}
		assert.Equal(t, len(indexer.Variables()), perCourse)
		assert.Equal(t, len(indexer.Variables()), perTerm)

		for _, variable := range indexer.Variables() {
			courseId, term, offeringId := indexer.Attributes(variable)
			require.Contains(t, indexer.OfCourse(courseId), variable)
			require.Contains(t, indexer.OfTerm(term), variable)
			assert.Equal(t, fmt.Sprintf("x_%v_%v_%v", courseId, term, offeringId), model.Name(variable))
		}
	}
}

func TestIndexerRejects(t *testing.T) {
	//** Arrange
	model := solver.NewModel()
	indexer := newIndexer()
	variable := indexer.register(model, "A", 1, "T1")

	//** Act & Assert
	assert.Empty(t, indexer.OfTerm(2))
	assert.Panics(t, func() { indexer.register(model, "A", 1, "T1") })
	assert.Panics(t, func() { indexer.Attributes(variable + 1) })
	assert.Empty(t, indexer.OfCourse("B"))
}
