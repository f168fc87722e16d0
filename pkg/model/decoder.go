package model

import (
	"slices"
	"strings"

	"github.com/limaJavier/gradplan/pkg/catalog"
	"github.com/limaJavier/gradplan/pkg/solver"
)

// ScheduledCourse is one allocation of a plan
type ScheduledCourse struct {
	CourseId   string              `json:"courseId"`
	Name       string              `json:"name"`
	OfferingId string              `json:"offeringId"`
	Blocks     []catalog.TimeBlock `json:"blocks"`
	Credits    int                 `json:"credits"`
	Category   catalog.Category    `json:"category"`
}

// Schedule maps each term holding at least one course to its courses (sorted by id) and to its credit load
type Schedule struct {
	Terms   map[int][]ScheduledCourse `json:"terms"`
	Credits map[int]int               `json:"credits"`
}

// Term returns the term a course is scheduled in, or false when it is not scheduled
func (schedule Schedule) Term(courseId string) (int, bool) {
	for term, courses := range schedule.Terms {
		if slices.ContainsFunc(courses, func(course ScheduledCourse) bool { return course.CourseId == courseId }) {
			return term, true
		}
	}
	return 0, false
}

// LastTerm returns the latest term holding a course, or zero for an empty schedule
func (schedule Schedule) LastTerm() int {
	last := 0
	for term := range schedule.Terms {
		last = max(last, term)
	}
	return last
}

func (schedule Schedule) SortedTerms() []int {
	terms := make([]int, 0, len(schedule.Terms))
	for term := range schedule.Terms {
		terms = append(terms, term)
	}
	slices.Sort(terms)
	return terms
}

// decode walks the true allocations of a solution
func decode(solution solver.Solution, indexer indexer, courses *catalog.Catalog) Schedule {
	schedule := Schedule{
		Terms:   make(map[int][]ScheduledCourse),
		Credits: make(map[int]int),
	}

	for _, variable := range indexer.Variables() {
		if !solution.Bool(variable) {
			continue
		}
		courseId, term, offeringId := indexer.Attributes(variable)
		course, _ := courses.Lookup(courseId)

		schedule.Terms[term] = append(schedule.Terms[term], ScheduledCourse{
			CourseId:   course.Id,
			Name:       course.Name,
			OfferingId: offeringId,
			Blocks:     slices.Clone(courses.Blocks(courseId, offeringId)),
			Credits:    course.Credits,
			Category:   course.Category,
		})
		schedule.Credits[term] += course.Credits
	}

	for _, scheduled := range schedule.Terms {
		slices.SortFunc(scheduled, func(a, b ScheduledCourse) int { return strings.Compare(a.CourseId, b.CourseId) })
	}
	return schedule
}
