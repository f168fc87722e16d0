package progress

import (
	"testing"

	"github.com/limaJavier/gradplan/pkg/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	courses := testCatalog(t)
	requirements := Requirements{
		Minimums: map[catalog.Category]int{
			catalog.RestrictedElective:  4,
			catalog.ConditionedElective: 8,
			catalog.FreeElective:        2,
		},
		TotalCredits: 30,
	}

	t.Run("Completed prerequisites are stripped", func(t *testing.T) {
		//** Act
		remaining, err := Adjust(courses, []string{"CALC1", "CALC2"}, requirements)

		//** Assert
		require.NoError(t, err)
		assert.False(t, remaining.Catalog.Offered("CALC1"))
		assert.False(t, remaining.Catalog.Offered("CALC2"))
		calc3, ok := remaining.Catalog.Lookup("CALC3")
		require.True(t, ok)
		assert.Empty(t, calc3.Prerequisites)
		assert.Equal(t, 8, remaining.EarnedCredits)
		assert.Equal(t, 22, remaining.RemainingCredits)
	})

	t.Run("Completed courses are credited with their original category", func(t *testing.T) {
		//** Act
		remaining, err := Adjust(courses, []string{"OLD", "REST1"}, requirements)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, 0, remaining.Minimums[catalog.RestrictedElective])
		assert.Equal(t, 4, remaining.Minimums[catalog.ConditionedElective])
		assert.Equal(t, 2, remaining.Minimums[catalog.FreeElective])
		assert.Equal(t, map[catalog.Category]int{catalog.ConditionedElective: 4, catalog.RestrictedElective: 6}, remaining.EarnedByCategory)
		assert.Equal(t, 10, remaining.EarnedCredits)
	})

	t.Run("Unreachable prerequisites block their dependents", func(t *testing.T) {
		//** Act
		remaining, err := Adjust(courses, nil, requirements)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"COND2": {"OLD"}}, remaining.Blocked)
		assert.False(t, remaining.Takeable("COND2"))
		assert.True(t, remaining.Takeable("CALC2"))
		assert.False(t, remaining.Takeable("OLD"))
	})

	t.Run("Completing the unreachable prerequisite unblocks", func(t *testing.T) {
		//** Act
		remaining, err := Adjust(courses, []string{"OLD"}, requirements)

		//** Assert
		require.NoError(t, err)
		assert.Empty(t, remaining.Blocked)
		assert.True(t, remaining.Takeable("COND2"))
	})

	t.Run("Unknown completed courses are reported", func(t *testing.T) {
		//** Act
		remaining, err := Adjust(courses, []string{"NOPE", "CALC1", "CALC1"}, requirements)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"NOPE"}, remaining.Unknown)
		assert.Equal(t, 4, remaining.EarnedCredits)
	})

	t.Run("Adjusting an adjusted catalog with nothing completed is a no-op", func(t *testing.T) {
		//** Arrange
		first, err := Adjust(courses, []string{"CALC1", "REST1"}, requirements)
		require.NoError(t, err)

		//** Act
		second, err := Adjust(first.Catalog, nil, first.Requirements())

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, first.Catalog.Courses(), second.Catalog.Courses())
		assert.Equal(t, first.Minimums, second.Minimums)
		assert.Equal(t, first.RemainingCredits, second.RemainingCredits)
		assert.Equal(t, first.Blocked, second.Blocked)
	})

	t.Run("Invalid requirements", func(t *testing.T) {
		//** Act
		_, err := Adjust(courses, nil, Requirements{Minimums: map[catalog.Category]int{catalog.Mandatory: 10}})

		//** Assert
		assert.ErrorIs(t, err, ErrInvalidRequirements)
	})
}

func testCatalog(t *testing.T) *catalog.Catalog {
	courses, _, err := catalog.Normalize(catalog.RawCatalog{
		Courses: []catalog.RawCourse{
			{Id: "CALC1", Credits: 4, Category: "mandatory"},
			{Id: "CALC2", Credits: 4, Category: "mandatory", Prerequisites: []string{"CALC1"}},
			{Id: "CALC3", Credits: 4, Category: "mandatory", Prerequisites: []string{"CALC1", "CALC2"}},
			{Id: "REST1", Credits: 6, Category: "restrita"},
			{Id: "OLD", Credits: 4, Category: "condicionada"},
			{Id: "COND2", Credits: 4, Category: "condicionada", Prerequisites: []string{"OLD"}},
			{Id: "FREE1", Credits: 2, Category: "livre"},
		},
		Offerings: []catalog.RawOffering{
			{CourseId: "CALC1", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10"}},
			{CourseId: "CALC2", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10"}},
			{CourseId: "CALC3", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10"}},
			{CourseId: "REST1", OfferingId: "T1", TimeBlocks: []string{"TER-08-10"}},
			{CourseId: "COND2", OfferingId: "T1", TimeBlocks: []string{"QUA-08-10"}},
			{CourseId: "FREE1", OfferingId: "T1", TimeBlocks: []string{"QUI-08-10"}},
		},
	})
	require.NoError(t, err)
	return courses
}
