package model

import (
	"errors"
	"fmt"

	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/progress"

	"github.com/samber/lo"
)

var ErrInconsistentSchedule = errors.New("schedule violates the planning rules")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %v", ErrInconsistentSchedule, fmt.Sprintf(format, args...))
}

// verify re-checks a decoded schedule against the remaining requirements without looking at the model
func verify(schedule Schedule, remaining progress.Remaining, settings Settings) error {
	terms := make(map[string]int)
	earnedByCategory := make(map[catalog.Category]int)
	earned := 0

	for _, term := range schedule.SortedTerms() {
		if term < settings.StartTerm || term > settings.LastTerm() {
			return violation("term %v is outside of the horizon [%v, %v]", term, settings.StartTerm, settings.LastTerm())
		}

		credits := 0
		occupied := make(map[catalog.Slot]string)
		for _, scheduled := range schedule.Terms[term] {
			// Check that:
			// - The course is still to take and is not blocked
			// - It is scheduled only once
			// - The offering exists and is eligible in the term
			// - Its hours are not occupied by another course of the term
			course, ok := remaining.Catalog.Lookup(scheduled.CourseId)
			if !ok || !remaining.Takeable(scheduled.CourseId) {
				return violation("course \"%v\" cannot be taken", scheduled.CourseId)
			}
			if previous, ok := terms[course.Id]; ok {
				return violation("course \"%v\" is scheduled in terms %v and %v", course.Id, previous, term)
			}
			offering, ok := lo.Find(remaining.Catalog.Offerings(course.Id), func(offering catalog.Offering) bool { return offering.Id == scheduled.OfferingId })
			if !ok {
				return violation("course \"%v\" has no offering \"%v\"", course.Id, scheduled.OfferingId)
			}
			if settings.ParityFiltering && !offering.Parity.Contains(catalog.ParityOf(term)) {
				return violation("offering \"%v\" of course \"%v\" is not offered in %v terms", offering.Id, course.Id, catalog.ParityOf(term))
			}
			for _, block := range offering.Blocks {
				for _, slot := range block.Slots() {
					if other, ok := occupied[slot]; ok {
						return violation("courses \"%v\" and \"%v\" overlap on %v at %02d in term %v", other, course.Id, slot.Day, slot.Hour, term)
					}
					occupied[slot] = course.Id
				}
			}

			terms[course.Id] = term
			credits += course.Credits
		}

		if credits > settings.CreditCeiling {
			return violation("term %v holds %v credits, over the ceiling of %v", term, credits, settings.CreditCeiling)
		}
		if credits != schedule.Credits[term] {
			return violation("term %v reports %v credits instead of %v", term, schedule.Credits[term], credits)
		}
	}

	for id, term := range terms {
		course, _ := remaining.Catalog.Lookup(id)
		earned += course.Credits
		earnedByCategory[course.Category] += course.Credits

		for _, prerequisite := range course.Prerequisites {
			if !remaining.Catalog.Offered(prerequisite) {
				continue
			}
			prerequisiteTerm, ok := terms[prerequisite]
			if !ok {
				return violation("course \"%v\" is scheduled without its prerequisite \"%v\"", id, prerequisite)
			}
			if prerequisiteTerm >= term {
				return violation("course \"%v\" (term %v) is not after its prerequisite \"%v\" (term %v)", id, term, prerequisite, prerequisiteTerm)
			}
		}
	}

	for _, course := range remaining.Catalog.Courses() {
		if _, ok := terms[course.Id]; course.Category == catalog.Mandatory && !ok {
			return violation("mandatory course \"%v\" is not scheduled", course.Id)
		}
	}
	for _, category := range catalog.ElectiveCategories {
		if earnedByCategory[category] < remaining.Minimums[category] {
			return violation("%v credits of category %v are scheduled, below the minimum of %v", earnedByCategory[category], category, remaining.Minimums[category])
		}
	}
	if earned < remaining.RemainingCredits {
		return violation("%v credits are scheduled, below the %v left for the program", earned, remaining.RemainingCredits)
	}

	return verifyGates(schedule, terms, remaining, settings)
}

func verifyGates(schedule Schedule, terms map[string]int, remaining progress.Remaining, settings Settings) error {
	for _, gate := range settings.Gates {
		term, ok := terms[gate.CourseId]
		if !ok {
			continue
		}
		if term < gate.MinTerm {
			return violation("gated course \"%v\" is scheduled in term %v, before term %v", gate.CourseId, term, gate.MinTerm)
		}

		cumulative := remaining.EarnedCredits
		for earlier, credits := range schedule.Credits {
			if earlier < term {
				cumulative += credits
			}
		}
		if cumulative < gate.MinCredits {
			return violation("gated course \"%v\" is scheduled with %v credits earned, below %v", gate.CourseId, cumulative, gate.MinCredits)
		}
	}
	return nil
}
