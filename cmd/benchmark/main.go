package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/limaJavier/gradplan/internal/config"
	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/model"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"

	"github.com/samber/lo"
)

// History is the set of courses a student has completed when asking for a plan
type History struct {
	Name      string
	Completed []string
}

type BenchmarkResult struct {
	Backend        string
	History        History
	Status         solver.Status
	GraduationTerm int
	Variables      int
	Constraints    int
	Duration       int64 // Milliseconds
	Memory         float32
}

var backends = map[string]func(cfg *config.Config) solver.Solver{
	config.GophersatBackend: func(*config.Config) solver.Solver { return solver.NewGophersatSolver() },
	config.CbcBackend:       func(cfg *config.Config) solver.Solver { return solver.NewCbcSolver(cfg.Solver.CbcPath) },
}

func main() {
	configPathPtr := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	historiesPtr := flag.String("histories", "", "Directory of JSON arrays of completed course ids; when empty, histories are derived from a plan from scratch")
	backendsPtr := flag.String("backends", "gophersat,cbc", "Comma-separated solver backends to compare")
	outPtr := flag.String("out", "benchmark_results.csv", "Path to the CSV file with the results")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPathPtr)
	if err != nil {
		fatal("cannot load configuration: %v", err)
	}
	logger.Configure(cfg.Logger())

	courses, err := cfg.LoadCatalog()
	if err != nil {
		fatal("cannot load catalog: %v", err)
	}

	selected := lo.Compact(lo.Map(strings.Split(*backendsPtr, ","), func(name string, _ int) string { return strings.TrimSpace(name) }))
	for _, name := range selected {
		if _, ok := backends[name]; !ok {
			fatal("%v is not a valid backend", name)
		}
	}

	var histories []History
	if *historiesPtr != "" {
		histories, err = readHistories(*historiesPtr)
	} else {
		histories, err = deriveHistories(cfg, courses, backends[selected[0]](cfg))
	}
	if err != nil {
		fatal("cannot build histories: %v", err)
	}

	results := make([]BenchmarkResult, 0, len(histories)*len(selected))
	for _, history := range histories {
		for _, name := range selected {
			logger.Info().Str("history", history.Name).Str("backend", name).Msg("benchmarking")
			result, err := measure(cfg, courses, name, history)
			if err != nil {
				logger.Error().Err(err).Str("history", history.Name).Str("backend", name).Msg("benchmark run failed")
				continue
			}
			results = append(results, result)
		}
	}

	if err := toCsv(*outPtr, results); err != nil {
		fatal("cannot write results: %v", err)
	}
}

func measure(cfg *config.Config, courses *catalog.Catalog, backend string, history History) (BenchmarkResult, error) {
	remaining, err := progress.Adjust(courses, history.Completed, cfg.CreditRequirements())
	if err != nil {
		return BenchmarkResult{}, err
	}
	planner, err := model.NewPlanner(backends[backend](cfg), cfg.Settings())
	if err != nil {
		return BenchmarkResult{}, err
	}

	runtime.GC()
	started := time.Now()
	plan, err := planner.Plan(remaining)
	duration := time.Since(started)
	if err != nil {
		return BenchmarkResult{}, err
	}

	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	return BenchmarkResult{
		Backend:        backend,
		History:        history,
		Status:         plan.Status,
		GraduationTerm: plan.GraduationTerm,
		Variables:      plan.Variables,
		Constraints:    plan.Constraints,
		Duration:       duration.Milliseconds(),
		Memory:         float32(memory.HeapAlloc) / (1024 * 1024),
	}, nil
}

func readHistories(directory string) ([]History, error) {
	files, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}

	histories := make([]History, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(directory, file.Name()))
		if err != nil {
			return nil, err
		}
		var completed []string
		if err := json.Unmarshal(content, &completed); err != nil {
			return nil, fmt.Errorf("history \"%v\" must be a JSON array of course ids: %w", file.Name(), err)
		}
		histories = append(histories, History{Name: file.Name(), Completed: completed})
	}
	return histories, nil
}

// deriveHistories plans from scratch and turns every prefix of the resulting schedule into a history
func deriveHistories(cfg *config.Config, courses *catalog.Catalog, backend solver.Solver) ([]History, error) {
	remaining, err := progress.Adjust(courses, nil, cfg.CreditRequirements())
	if err != nil {
		return nil, err
	}
	planner, err := model.NewPlanner(backend, cfg.Settings())
	if err != nil {
		return nil, err
	}
	plan, err := planner.Plan(remaining)
	if err != nil {
		return nil, err
	}
	if !plan.Status.Solved() {
		return nil, fmt.Errorf("no plan from scratch to derive histories from: %v", plan.Status)
	}
	return progressiveHistories(plan.Schedule), nil
}

// progressiveHistories returns one history per scheduled term, each completing every course up to the term before
func progressiveHistories(schedule model.Schedule) []History {
	histories := []History{{Name: "scratch", Completed: []string{}}}
	completed := make([]string, 0)
	terms := schedule.SortedTerms()
	for i, term := range terms[:max(len(terms)-1, 0)] {
		completed = append(completed, lo.Map(schedule.Terms[term], func(course model.ScheduledCourse, _ int) string {
			return course.CourseId
		})...)
		histories = append(histories, History{
			Name:      fmt.Sprintf("after-term-%d", i+1),
			Completed: append([]string(nil), completed...),
		})
	}
	return histories
}

func toCsv(path string, results []BenchmarkResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Backend", "History", "Completed", "Status", "GraduationTerm", "Variables", "Constraints", "Duration(ms)", "Memory(MB)"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write(record(result)); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}
	return nil
}

func record(result BenchmarkResult) []string {
	return []string{
		result.Backend,
		result.History.Name,
		fmt.Sprintf("%d", len(result.History.Completed)),
		result.Status.String(),
		fmt.Sprintf("%d", result.GraduationTerm),
		fmt.Sprintf("%d", result.Variables),
		fmt.Sprintf("%d", result.Constraints),
		fmt.Sprintf("%d", result.Duration),
		fmt.Sprintf("%.1f", result.Memory),
	}
}

func fatal(format string, args ...any) {
	logger.Error().Msgf(format, args...)
	os.Exit(1)
}
