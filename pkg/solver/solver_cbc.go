package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Grace period granted to cbc on top of its own time limit before the process is killed
const cbcGrace = 10 * time.Second

type cbcSolver struct {
	path string
}

// NewCbcSolver returns a mixed-integer linear backend running the COIN-OR cbc executable found at path (or in PATH
// when path is empty). Conditional constraints reach cbc as big-M inequalities
func NewCbcSolver(path string) Solver {
	if path == "" {
		path = "cbc"
	}
	return &cbcSolver{path: path}
}

func (solver *cbcSolver) Solve(model *Model, budget time.Duration) (Solution, error) {
	if solution, ok := trivial(model); ok {
		return solution, nil
	}

	executable, err := exec.LookPath(solver.path)
	if err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("%w: cbc: %v", ErrBackendUnavailable, err)
	}

	// Create a temporary file to hold the LP model
	inputTempFile, err := os.CreateTemp("", "model-*.lp")
	if err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("failed to create temporary file: %v", err)
	}
	defer os.Remove(inputTempFile.Name())

	outputTempFile, err := os.CreateTemp("", "cbc_output-*.txt")
	if err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("failed to create temporary file: %v", err)
	}
	outputTempFile.Close()
	defer os.Remove(outputTempFile.Name())

	if _, err := inputTempFile.WriteString(model.ToLP()); err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("failed to write LP to temporary file: %v", err)
	}
	if err := inputTempFile.Close(); err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("failed to close temporary file: %v", err)
	}

	seconds := max(1, int(math.Ceil(budget.Seconds())))
	ctx, cancel := context.WithTimeout(context.Background(), budget+cbcGrace)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, inputTempFile.Name(), "-sec", strconv.Itoa(seconds), "-solve", "-solution", outputTempFile.Name())
	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Solution{Status: Unknown}, nil
		}
		return Solution{Status: Unknown}, fmt.Errorf("%w: an error occurred during cbc execution: %v : %v", ErrBackendUnavailable, err, stderr.String())
	}

	output, err := os.ReadFile(outputTempFile.Name())
	if err != nil {
		return Solution{Status: Unknown}, fmt.Errorf("failed to read output file: %v", err)
	}

	status, values, err := parseCbcSolution(string(output), model.Variables())
	if err != nil || !status.Solved() {
		return Solution{Status: status}, err
	}

	solution, err := solved(model, status, values)
	if errors.Is(err, ErrInvalidAssignment) && status == Feasible {
		// Time-limited incumbents failing the check count as no solution
		return Solution{Status: Unknown}, nil
	}
	return solution, err
}

// parseCbcSolution reads a cbc solution file:
//
//	Optimal - objective value 3.00000000
//	      0 v1                    1                       0
//
// Variables absent from the file are zero
func parseCbcSolution(output string, variables int) (Status, []int, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return Unknown, nil, nil
	}

	header := strings.ToLower(lines[0])
	values := make([]int, variables+1)
	found := false
	for _, line := range lines[1:] {
		fields := strings.Fields(strings.ReplaceAll(line, "**", ""))
		if len(fields) < 3 || !strings.HasPrefix(fields[1], "v") {
			continue
		}
		v, err := strconv.Atoi(fields[1][1:])
		if err != nil || v < 1 || v > variables {
			return Unknown, nil, fmt.Errorf("unexpected variable %v in cbc output", fields[1])
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Unknown, nil, fmt.Errorf("invalid value for %v in cbc output: %v", fields[1], err)
		}
		values[v] = int(math.Round(value))
		found = true
	}

	switch {
	case strings.HasPrefix(header, "optimal"):
		return Optimal, values, nil
	case strings.Contains(header, "infeasible"):
		return Infeasible, nil, nil
	case strings.HasPrefix(header, "stopped") && found && !strings.Contains(header, "no solution"):
		return Feasible, values, nil
	default:
		return Unknown, nil, nil
	}
}
