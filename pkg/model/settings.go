package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSettings = errors.New("invalid planning settings")

// Gate restricts when a course (an internship, a capstone) may be taken
type Gate struct {
	CourseId   string `json:"courseId" yaml:"course_id"`
	MinCredits int    `json:"minCredits,omitempty" yaml:"min_credits"` // Credits earned before the course's term, completed ones included
	MinTerm    int    `json:"minTerm,omitempty" yaml:"min_term"`       // Earliest term the course may be taken in
}

type Settings struct {
	StartTerm       int           // First term of the planning horizon
	Horizon         int           // Number of terms in the planning horizon
	CreditCeiling   int           // Maximum credits per term
	TimeBudget      time.Duration // Wall-clock budget of a single solve
	ParityFiltering bool          // Only allocate offerings in terms whose parity they are offered in
	FrontLoad       bool          // Break graduation-term ties by taking courses as early as possible
	Gates           []Gate
}

func DefaultSettings() Settings {
	return Settings{
		StartTerm:       1,
		Horizon:         14,
		CreditCeiling:   32,
		TimeBudget:      120 * time.Second,
		ParityFiltering: true,
		FrontLoad:       true,
	}
}

// LastTerm is the last term of the planning horizon
func (settings Settings) LastTerm() int {
	return settings.StartTerm + settings.Horizon - 1
}

// Sentinel is the course-term value of a course that is never taken
func (settings Settings) Sentinel() int {
	return settings.LastTerm() + 1
}

func (settings Settings) Validate() error {
	var issues []error
	if settings.StartTerm < 1 {
		issues = append(issues, fmt.Errorf("start term must be positive: %v", settings.StartTerm))
	}
	if settings.Horizon < 1 {
		issues = append(issues, fmt.Errorf("horizon must span at least one term: %v", settings.Horizon))
	}
	if settings.CreditCeiling < 1 {
		issues = append(issues, fmt.Errorf("credit ceiling must be positive: %v", settings.CreditCeiling))
	}
	if settings.TimeBudget <= 0 {
		issues = append(issues, fmt.Errorf("time budget must be positive: %v", settings.TimeBudget))
	}

	gated := make(map[string]bool, len(settings.Gates))
	for _, gate := range settings.Gates {
		if gate.CourseId == "" {
			issues = append(issues, errors.New("gate without course id"))
		} else if gated[gate.CourseId] {
			issues = append(issues, fmt.Errorf("course \"%v\" is gated more than once", gate.CourseId))
		}
		if gate.MinCredits < 0 || gate.MinTerm < 0 {
			issues = append(issues, fmt.Errorf("gate of course \"%v\" has a negative threshold", gate.CourseId))
		}
		gated[gate.CourseId] = true
	}

	if len(issues) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(issues...))
	}
	return nil
}
