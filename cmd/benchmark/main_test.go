package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/gradplan/pkg/model"
	"github.com/limaJavier/gradplan/pkg/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressiveHistories(t *testing.T) {
	t.Run("One history per term but the last", func(t *testing.T) {
		//** Arrange
		schedule := model.Schedule{
			Terms: map[int][]model.ScheduledCourse{
				3: {{CourseId: "C"}},
				1: {{CourseId: "A"}, {CourseId: "B"}},
				2: {{CourseId: "D"}},
			},
		}

		//** Act
		histories := progressiveHistories(schedule)

		//** Assert
		assert.Equal(t, []History{
			{Name: "scratch", Completed: []string{}},
			{Name: "after-term-1", Completed: []string{"A", "B"}},
			{Name: "after-term-2", Completed: []string{"A", "B", "D"}},
		}, histories)
	})

	t.Run("Empty schedule", func(t *testing.T) {
		//** Act
		histories := progressiveHistories(model.Schedule{})

		//** Assert
		assert.Equal(t, []History{{Name: "scratch", Completed: []string{}}}, histories)
	})
}

func TestReadHistories(t *testing.T) {
	//** Arrange
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "first.json"), []byte(`["A", "B"]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(directory, "notes.txt"), []byte("ignored"), 0644))

	//** Act
	histories, err := readHistories(directory)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []History{{Name: "first.json", Completed: []string{"A", "B"}}}, histories)

	require.NoError(t, os.WriteFile(filepath.Join(directory, "broken.json"), []byte(`{"A": 1}`), 0644))
	_, err = readHistories(directory)
	assert.ErrorContains(t, err, "broken.json")
}

func TestRecord(t *testing.T) {
	//** Arrange
	result := BenchmarkResult{
		Backend:        "gophersat",
		History:        History{Name: "scratch", Completed: []string{"A"}},
		Status:         solver.Optimal,
		GraduationTerm: 9,
		Variables:      120,
		Constraints:    300,
		Duration:       1500,
		Memory:         12.5,
	}

	//** Act & Assert
	assert.Equal(t, []string{"gophersat", "scratch", "1", "OPTIMAL", "9", "120", "300", "1500", "12.5"}, record(result))
}
