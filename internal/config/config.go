package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/model"
	"github.com/limaJavier/gradplan/pkg/progress"
	"github.com/limaJavier/gradplan/pkg/solver"

	"gopkg.in/yaml.v3"
)

const (
	GophersatBackend = "gophersat"
	CbcBackend       = "cbc"
)

type Config struct {
	Planning struct {
		StartTerm       int           `yaml:"start_term" env:"GRADPLAN_START_TERM"`
		Horizon         int           `yaml:"horizon" env:"GRADPLAN_HORIZON"`
		CreditCeiling   int           `yaml:"credit_ceiling" env:"GRADPLAN_CREDIT_CEILING"`
		TimeBudget      time.Duration `yaml:"time_budget" env:"GRADPLAN_TIME_BUDGET"`
		ParityFiltering bool          `yaml:"parity_filtering" env:"GRADPLAN_PARITY_FILTERING"`
		FrontLoad       bool          `yaml:"front_load" env:"GRADPLAN_FRONT_LOAD"`
		Gates           []model.Gate  `yaml:"gates" env:"GRADPLAN_GATES"`
	} `yaml:"planning"`

	Requirements struct {
		RestrictedElective  int `yaml:"restricted_elective" env:"GRADPLAN_MIN_RESTRICTED"`
		ConditionedElective int `yaml:"conditioned_elective" env:"GRADPLAN_MIN_CONDITIONED"`
		FreeElective        int `yaml:"free_elective" env:"GRADPLAN_MIN_FREE"`
		TotalCredits        int `yaml:"total_credits" env:"GRADPLAN_TOTAL_CREDITS"`
	} `yaml:"requirements"`

	Solver struct {
		Backend string `yaml:"backend" env:"GRADPLAN_SOLVER"`
		CbcPath string `yaml:"cbc_path" env:"GRADPLAN_CBC_PATH"`
	} `yaml:"solver"`

	Catalog struct {
		Courses   string `yaml:"courses" env:"GRADPLAN_COURSES"`
		Offerings string `yaml:"offerings" env:"GRADPLAN_OFFERINGS"`
		SQLite    string `yaml:"sqlite" env:"GRADPLAN_SQLITE"`
	} `yaml:"catalog"`

	Server struct {
		Port string `yaml:"port" env:"GRADPLAN_PORT"`
		Mode string `yaml:"mode" env:"GRADPLAN_MODE"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads the defaults, then the YAML file at configPath when it exists, then the environment overrides
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := applyEnvironment(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func setDefaults(config *Config) {
	settings := model.DefaultSettings()
	config.Planning.StartTerm = settings.StartTerm
	config.Planning.Horizon = settings.Horizon
	config.Planning.CreditCeiling = settings.CreditCeiling
	config.Planning.TimeBudget = settings.TimeBudget
	config.Planning.ParityFiltering = settings.ParityFiltering
	config.Planning.FrontLoad = settings.FrontLoad

	config.Requirements.RestrictedElective = 4
	config.Requirements.ConditionedElective = 40
	config.Requirements.FreeElective = 8

	config.Solver.Backend = GophersatBackend

	config.Server.Port = "8080"
	config.Server.Mode = "release"

	config.Logging.Level = "info"
	config.Logging.Format = "pretty"
}

func validateConfig(config *Config) error {
	if err := config.Settings().Validate(); err != nil {
		return err
	}
	if err := config.CreditRequirements().Validate(); err != nil {
		return err
	}

	switch config.Solver.Backend {
	case GophersatBackend, CbcBackend:
	default:
		return fmt.Errorf("unknown solver backend \"%v\"", config.Solver.Backend)
	}

	if config.Server.Port == "" {
		return errors.New("server port is required")
	}
	if config.Logging.Format != "json" && config.Logging.Format != "pretty" {
		return fmt.Errorf("unknown logging format \"%v\"", config.Logging.Format)
	}
	return nil
}

func (config *Config) Settings() model.Settings {
	return model.Settings{
		StartTerm:       config.Planning.StartTerm,
		Horizon:         config.Planning.Horizon,
		CreditCeiling:   config.Planning.CreditCeiling,
		TimeBudget:      config.Planning.TimeBudget,
		ParityFiltering: config.Planning.ParityFiltering,
		FrontLoad:       config.Planning.FrontLoad,
		Gates:           config.Planning.Gates,
	}
}

func (config *Config) CreditRequirements() progress.Requirements {
	return progress.Requirements{
		Minimums: map[catalog.Category]int{
			catalog.RestrictedElective:  config.Requirements.RestrictedElective,
			catalog.ConditionedElective: config.Requirements.ConditionedElective,
			catalog.FreeElective:        config.Requirements.FreeElective,
		},
		TotalCredits: config.Requirements.TotalCredits,
	}
}

// NewSolver instantiates the configured backend
func (config *Config) NewSolver() solver.Solver {
	if config.Solver.Backend == CbcBackend {
		return solver.NewCbcSolver(config.Solver.CbcPath)
	}
	return solver.NewGophersatSolver()
}

func (config *Config) Logger() logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(config.Logging.Level),
		Pretty: config.Logging.Format == "pretty",
	}
}
