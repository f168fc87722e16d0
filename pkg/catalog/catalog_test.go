package catalog

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeBlock(t *testing.T) {
	t.Run("Valid blocks", func(t *testing.T) {
		for text, expected := range map[string]TimeBlock{
			"SEG-08-10": {Day: Monday, Start: 8, End: 10},
			"sab-14-18": {Day: Saturday, Start: 14, End: 18},
			" QUI-19-21": {Day: Thursday, Start: 19, End: 21},
		} {
			//** Act
			block, err := ParseTimeBlock(text)

			//** Assert
			require.NoError(t, err, text)
			assert.Equal(t, expected, block)
		}
	})

	t.Run("Invalid blocks", func(t *testing.T) {
		for _, text := range []string{"", "SEG-8-10", "DOM-08-10", "SEG-10-08", "SEG-08-08", "SEG-08", "SEG-08-25"} {
			//** Act
			_, err := ParseTimeBlock(text)

			//** Assert
			assert.Error(t, err, text)
		}
	})

	t.Run("Overlaps and slots", func(t *testing.T) {
		//** Arrange
		block := TimeBlock{Day: Monday, Start: 8, End: 10}

		//** Assert
		assert.True(t, block.Overlaps(TimeBlock{Day: Monday, Start: 9, End: 11}))
		assert.False(t, block.Overlaps(TimeBlock{Day: Monday, Start: 10, End: 12}))
		assert.False(t, block.Overlaps(TimeBlock{Day: Tuesday, Start: 8, End: 10}))
		assert.Equal(t, []Slot{{Day: Monday, Hour: 8}, {Day: Monday, Hour: 9}}, block.Slots())
		assert.Equal(t, "SEG-08-10", block.String())
	})
}

func TestParseCategory(t *testing.T) {
	t.Run("Known tags", func(t *testing.T) {
		for tag, expected := range map[string]Category{
			"mandatory":            Mandatory,
			"3º Período":           Mandatory,
			"10 periodo":           Mandatory,
			"Escolha Restrita":     RestrictedElective,
			"conditioned-elective": ConditionedElective,
			"livre":                FreeElective,
		} {
			//** Act
			category, err := ParseCategory(tag)

			//** Assert
			require.NoError(t, err, tag)
			assert.Equal(t, expected, category, tag)
		}
	})

	t.Run("Unknown tag", func(t *testing.T) {
		//** Act
		_, err := ParseCategory("optativa qualquer")

		//** Assert
		assert.ErrorContains(t, err, "unrecognized category")
	})
}

func TestParseParity(t *testing.T) {
	for tag, expected := range map[string]ParitySet{
		"":      BothParities,
		"1,3":   {Odd: true},
		"2":     {Even: true},
		"1, 4":  BothParities,
		" , 6 ": {Even: true},
	} {
		//** Act
		set, err := ParseParity(tag)

		//** Assert
		require.NoError(t, err, tag)
		assert.Equal(t, expected, set, tag)
	}

	_, err := ParseParity("1,x")
	assert.Error(t, err)
	_, err = ParseParity("0")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	t.Run("Courses without offering are known but not offered", func(t *testing.T) {
		//** Arrange
		raw := RawCatalog{
			Courses: []RawCourse{
				{Id: "A", Name: "Calculus", Credits: 4, Category: "mandatory"},
				{Id: "B", Credits: 2, Category: "free", Prerequisites: []string{"A", "A", ""}},
				{Id: "C", Credits: 4, Category: "restricted"},
			},
			Offerings: []RawOffering{
				{CourseId: "A", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10"}},
				{CourseId: "B", OfferingId: "T1", TimeBlocks: []string{"TER-08-10"}, Parity: "2"},
				{CourseId: "B", OfferingId: "T2", TimeBlocks: []string{"TER-10-12"}, Parity: "1"},
				{CourseId: "Z", OfferingId: "T1", TimeBlocks: []string{"QUA-08-10"}},
			},
		}

		//** Act
		catalog, dropped, err := Normalize(raw)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"Z/T1"}, dropped)
		assert.Equal(t, 2, catalog.Len())
		assert.True(t, catalog.Offered("A"))
		assert.False(t, catalog.Offered("C"))
		_, known := catalog.Lookup("C")
		assert.True(t, known)

		course, _ := catalog.Lookup("B")
		assert.Equal(t, "B", course.Name)
		assert.Equal(t, []string{"A"}, course.Prerequisites)
		assert.Equal(t, BothParities, catalog.Parity("B"))
		assert.Equal(t, []string{"B"}, catalog.Ids(FreeElective))
		assert.Equal(t, []TimeBlock{{Day: Tuesday, Start: 10, End: 12}}, catalog.Blocks("B", "T2"))
	})

	t.Run("Every invalid record is reported", func(t *testing.T) {
		//** Arrange
		raw := RawCatalog{
			Courses: []RawCourse{
				{Id: "A", Credits: 4, Category: "elective of some sort"},
				{Id: "B", Credits: 2.5, Category: "free"},
				{Id: "C", Credits: 2, Category: "free", Prerequisites: []string{"C"}},
				{Id: "D", Credits: 2, Category: "free"},
				{Id: "D", Credits: 2, Category: "free"},
			},
			Offerings: []RawOffering{
				{CourseId: "D", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10", "SEG-09-11"}},
			},
		}

		//** Act
		_, _, err := Normalize(raw)

		//** Assert
		require.ErrorIs(t, err, ErrInvalidCatalog)
		for _, expected := range []string{"unrecognized category", "whole number", "itself", "duplicate course", "overlapping"} {
			assert.ErrorContains(t, err, expected)
		}
	})

	t.Run("Artificial placeholders are free electives", func(t *testing.T) {
		//** Arrange
		raw := RawCatalog{
			Courses: []RawCourse{
				{Id: "ARTIFICIAL02", Credits: 4},
				{Id: "ARTIFICIAL_2H", Credits: 2, Category: "placeholder"},
				{Id: "ARTIFICIAL03", Credits: 4, Category: "Escolha Restrita"},
			},
			Offerings: []RawOffering{
				{CourseId: "ARTIFICIAL02", OfferingId: "ARTIFICIAL02T1", TimeBlocks: []string{"SEG-08-10", "TER-08-10"}},
				{CourseId: "ARTIFICIAL_2H", OfferingId: "ARTIFICIAL_2HT1", TimeBlocks: []string{"QUA-08-10"}},
				{CourseId: "ARTIFICIAL03", OfferingId: "ARTIFICIAL03T1", TimeBlocks: []string{"QUI-08-10"}},
			},
		}

		//** Act
		catalog, _, err := Normalize(raw)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"ARTIFICIAL02", "ARTIFICIAL_2H"}, catalog.Ids(FreeElective))
		assert.Equal(t, []string{"ARTIFICIAL03"}, catalog.Ids(RestrictedElective))
	})

	t.Run("Empty catalog", func(t *testing.T) {
		//** Act
		_, _, err := Normalize(RawCatalog{})

		//** Assert
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})
}

func TestWithout(t *testing.T) {
	//** Arrange
	catalog := mustNormalize(t, RawCatalog{
		Courses: []RawCourse{
			{Id: "A", Credits: 4, Category: "mandatory"},
			{Id: "B", Credits: 4, Category: "mandatory", Prerequisites: []string{"A"}},
		},
		Offerings: []RawOffering{
			{CourseId: "A", OfferingId: "T1"},
			{CourseId: "B", OfferingId: "T1"},
		},
	})

	//** Act
	filtered := catalog.Without(map[string]bool{"A": true})

	//** Assert
	assert.False(t, filtered.Offered("A"))
	course, _ := filtered.Lookup("B")
	assert.Empty(t, course.Prerequisites)
	original, _ := catalog.Lookup("B")
	assert.Equal(t, []string{"A"}, original.Prerequisites)
}

func TestPrerequisiteCycle(t *testing.T) {
	t.Run("Cycle", func(t *testing.T) {
		//** Arrange
		catalog := mustNormalize(t, RawCatalog{
			Courses: []RawCourse{
				{Id: "A", Credits: 4, Category: "mandatory", Prerequisites: []string{"C"}},
				{Id: "B", Credits: 4, Category: "mandatory", Prerequisites: []string{"A"}},
				{Id: "C", Credits: 4, Category: "mandatory", Prerequisites: []string{"B"}},
			},
			Offerings: []RawOffering{{CourseId: "A", OfferingId: "T1"}, {CourseId: "B", OfferingId: "T1"}, {CourseId: "C", OfferingId: "T1"}},
		})

		//** Act
		cycle := catalog.PrerequisiteCycle()

		//** Assert
		require.Len(t, cycle, 4)
		assert.Equal(t, cycle[0], cycle[3])
		assert.ElementsMatch(t, []string{"A", "B", "C"}, cycle[:3])
	})

	t.Run("Acyclic", func(t *testing.T) {
		//** Arrange
		catalog := mustNormalize(t, RawCatalog{
			Courses: []RawCourse{
				{Id: "A", Credits: 4, Category: "mandatory"},
				{Id: "B", Credits: 4, Category: "mandatory", Prerequisites: []string{"A"}},
				{Id: "C", Credits: 4, Category: "livre", Prerequisites: []string{"A", "B"}},
			},
			Offerings: []RawOffering{{CourseId: "A", OfferingId: "T1"}, {CourseId: "B", OfferingId: "T1"}, {CourseId: "C", OfferingId: "T1"}},
		})

		//** Act
		cycle := catalog.PrerequisiteCycle()

		//** Assert
		assert.Nil(t, cycle)
		assert.Equal(t, map[Category]int{Mandatory: 8, FreeElective: 4}, catalog.AvailableCredits())
	})
}

func TestFromJsonReader(t *testing.T) {
	t.Run("Valid document", func(t *testing.T) {
		//** Arrange
		document := `{
			"courses": [{"id": "A", "name": "Calculus", "credits": 4, "category": "mandatory", "prerequisites": []}],
			"offerings": [{"course_id": "A", "offering_id": "T1", "time_blocks": ["SEG-08-10"], "parity": "1,3"}]
		}`

		//** Act
		raw, err := FromJsonReader(strings.NewReader(document))

		//** Assert
		require.NoError(t, err)
		require.Len(t, raw.Courses, 1)
		assert.Equal(t, 4.0, raw.Courses[0].Credits)
		assert.Equal(t, []string{"SEG-08-10"}, raw.Offerings[0].TimeBlocks)
		assert.Equal(t, "1,3", raw.Offerings[0].Parity)
	})

	t.Run("Unknown field", func(t *testing.T) {
		//** Arrange
		document := `{"courses": [{"id": "A", "credit": 4}], "offerings": []}`

		//** Act
		_, err := FromJsonReader(strings.NewReader(document))

		//** Assert
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("Portuguese field names", func(t *testing.T) {
		//** Arrange
		document := `{
			"courses": [{"id": "MAT01", "nome": "Cálculo I", "creditos": 4, "tipo": "1º Período", "prerequisitos": ["MAT00"]}],
			"offerings": [{"disciplina_id": "MAT01", "turma_id": "MAT01T1", "horario": ["SEG-08-10", "QUA-08-10"], "periodo": "1,3"}]
		}`

		//** Act
		raw, err := FromJsonReader(strings.NewReader(document))

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []RawCourse{{Id: "MAT01", Name: "Cálculo I", Credits: 4, Category: "1º Período", Prerequisites: []string{"MAT00"}}}, raw.Courses)
		assert.Equal(t, []RawOffering{{CourseId: "MAT01", OfferingId: "MAT01T1", TimeBlocks: []string{"SEG-08-10", "QUA-08-10"}, Parity: "1,3"}}, raw.Offerings)
	})

	t.Run("Field given twice", func(t *testing.T) {
		//** Arrange
		document := `{"courses": [], "offerings": [{"course_id": "A", "disciplina_id": "B", "offering_id": "T1"}]}`

		//** Act
		_, err := FromJsonReader(strings.NewReader(document))

		//** Assert
		assert.ErrorIs(t, err, ErrMalformedInput)
		assert.ErrorContains(t, err, "disciplina_id")
	})

	t.Run("Missing offerings", func(t *testing.T) {
		//** Act
		_, err := FromJsonReader(strings.NewReader(`{"courses": []}`))

		//** Assert
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestSQLite(t *testing.T) {
	//** Arrange
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	raw := RawCatalog{
		Courses: []RawCourse{
			{Id: "A", Name: "Calculus", Credits: 4, Category: "mandatory"},
			{Id: "B", Name: "Physics", Credits: 4, Category: "restrita", Prerequisites: []string{"A"}},
		},
		Offerings: []RawOffering{
			{CourseId: "A", OfferingId: "T1", TimeBlocks: []string{"SEG-08-10", "QUA-08-10"}, Parity: "1"},
			{CourseId: "B", OfferingId: "T1", TimeBlocks: []string{"TER-08-10"}},
		},
	}

	//** Act
	require.NoError(t, SaveSQLite(db, raw))
	loaded, err := FromSQLite(db)

	//** Assert
	require.NoError(t, err)
	catalog := mustNormalize(t, loaded)
	assert.Equal(t, 2, catalog.Len())
	course, _ := catalog.Lookup("B")
	assert.Equal(t, RestrictedElective, course.Category)
	assert.Equal(t, []string{"A"}, course.Prerequisites)
	assert.ElementsMatch(t, []TimeBlock{{Day: Monday, Start: 8, End: 10}, {Day: Wednesday, Start: 8, End: 10}}, catalog.Blocks("A", "T1"))
	assert.Equal(t, ParitySet{Odd: true}, catalog.Parity("A"))
	assert.Equal(t, BothParities, catalog.Parity("B"))
}

func mustNormalize(t *testing.T, raw RawCatalog) *Catalog {
	catalog, _, err := Normalize(raw)
	require.NoError(t, err)
	return catalog
}
