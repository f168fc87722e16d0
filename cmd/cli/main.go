package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/limaJavier/gradplan/internal/config"
	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/model"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"
	"github.com/samber/lo"
)

// Exit codes
const (
	exitSolved     = 10
	exitOther      = 15
	exitInfeasible = 20
)

var validSolvers = []string{config.GophersatBackend, config.CbcBackend}

type output struct {
	model.Plan
	EarnedCredits    int                 `json:"earnedCredits"`
	RemainingCredits int                 `json:"remainingCredits"`
	Blocked          map[string][]string `json:"blocked,omitempty"`
	Unknown          []string            `json:"unknown,omitempty"`
}

func main() {
	// Define arguments
	configPathPtr := flag.String("config", "config.yaml", "Path to the YAML configuration file; missing files fall back to the defaults")
	coursesPtr := flag.String("courses", "", "Path to the courses JSON file; overrides the configuration")
	offeringsPtr := flag.String("offerings", "", "Path to the offerings JSON file; overrides the configuration")
	sqlitePtr := flag.String("sqlite", "", "Path to a SQLite catalog; takes precedence over the JSON files")
	importPtr := flag.String("import", "", "Copy the JSON catalog into the SQLite database at this path and exit")
	completedPtr := flag.String("completed", "", "Comma-separated ids of the completed courses")
	historyPtr := flag.String("history", "", "Path to a JSON array with the ids of the completed courses")
	solverPtr := flag.String("solver", "", "Solver backend. Allowed values are: \"gophersat\" and \"cbc\"; overrides the configuration")
	startPtr := flag.Int("start", 0, "First term to plan; overrides the configuration")
	budgetPtr := flag.Duration("budget", 0, "Solve time budget (e.g. 90s); overrides the configuration")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPathPtr)
	if err != nil {
		fatal("cannot load configuration: %v", err)
	}
	logger.Configure(cfg.Logger())

	// Apply overrides
	if *coursesPtr != "" {
		cfg.Catalog.Courses = *coursesPtr
	}
	if *offeringsPtr != "" {
		cfg.Catalog.Offerings = *offeringsPtr
	}
	if *sqlitePtr != "" {
		cfg.Catalog.SQLite = *sqlitePtr
	}
	if *solverPtr != "" {
		cfg.Solver.Backend = strings.ToLower(*solverPtr)
	}
	if *startPtr != 0 {
		cfg.Planning.StartTerm = *startPtr
	}
	if *budgetPtr != 0 {
		cfg.Planning.TimeBudget = *budgetPtr
	}

	// Validate arguments
	if !slices.Contains(validSolvers, cfg.Solver.Backend) {
		fatal("%v is not a valid solver", cfg.Solver.Backend)
	}

	if *importPtr != "" {
		if err := cfg.ImportCatalog(*importPtr); err != nil {
			fatal("cannot import catalog: %v", err)
		}
		return
	}

	completed, err := completedCourses(*completedPtr, *historyPtr)
	if err != nil {
		fatal("cannot read completed courses: %v", err)
	}

	courses, err := cfg.LoadCatalog()
	if err != nil {
		fatal("cannot load catalog: %v", err)
	}

	remaining, err := progress.Adjust(courses, completed, cfg.CreditRequirements())
	if err != nil {
		fatal("cannot adjust requirements: %v", err)
	}

	planner, err := model.NewPlanner(cfg.NewSolver(), cfg.Settings())
	if err != nil {
		fatal("cannot build planner: %v", err)
	}

	plan, err := planner.Plan(remaining)
	if err != nil {
		fatal("an error occurred during planning: %v", err)
	}

	// Marshal output into json
	outputJson, err := json.MarshalIndent(output{
		Plan:             plan,
		EarnedCredits:    remaining.EarnedCredits,
		RemainingCredits: remaining.RemainingCredits,
		Blocked:          remaining.Blocked,
		Unknown:          remaining.Unknown,
	}, "", "  ")
	if err != nil {
		fatal("an error occurred while building output json: %v", err)
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if *outFilePathPtr == "" {
		fmt.Println(string(outputJson))
	} else if err := os.WriteFile(*outFilePathPtr, outputJson, 0666); err != nil {
		fatal("an error occurred while writing to the output file: %v", err)
	}

	logger.Info().
		Stringer("status", plan.Status).
		Int("graduation_term", plan.GraduationTerm).
		Int("variables", plan.Variables).
		Int("constraints", plan.Constraints).
		Msg("planning finished")

	switch {
	case plan.Status.Solved():
		os.Exit(exitSolved)
	case plan.Status == solver.Infeasible:
		os.Exit(exitInfeasible)
	default:
		os.Exit(exitOther)
	}
}

// completedCourses merges the ids given inline with the ones listed in the history file
func completedCourses(inline string, historyPath string) ([]string, error) {
	completed := lo.Compact(lo.Map(strings.Split(inline, ","), func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))

	if historyPath != "" {
		file, err := os.ReadFile(historyPath)
		if err != nil {
			return nil, err
		}
		var history []string
		if err := json.Unmarshal(file, &history); err != nil {
			return nil, fmt.Errorf("history must be a JSON array of course ids: %w", err)
		}
		completed = append(completed, history...)
	}
	return lo.Uniq(completed), nil
}

func fatal(format string, args ...any) {
	logger.Error().Msgf(format, args...)
	os.Exit(exitOther)
}
