package catalog

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrEmptyCatalog   = errors.New("catalog has no course")
)

const artificialPrefix = "ARTIFICIAL"

type RawCourse struct {
	Id            string
	Name          string
	Credits       float64
	Category      string
	Prerequisites []string
}

type RawOffering struct {
	CourseId   string   `mapstructure:"course_id"`
	OfferingId string   `mapstructure:"offering_id"`
	TimeBlocks []string `mapstructure:"time_blocks"`
	Parity     string
}

type RawCatalog struct {
	Courses   []RawCourse
	Offerings []RawOffering
}

type Course struct {
	Id            string   `json:"id"`
	Name          string   `json:"name"`
	Credits       int      `json:"credits"`
	Category      Category `json:"category"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

type Offering struct {
	Id       string      `json:"id"`
	CourseId string      `json:"courseId"`
	Blocks   []TimeBlock `json:"blocks"`
	Parity   ParitySet   `json:"parity"`
}

// Catalog is the normalized, read-only view over courses and their offerings.
// Every known course is kept so that completed courses can be credited even when they are no longer offered,
// but only offered courses take part in planning
type Catalog struct {
	courses   map[string]Course
	offerings map[string][]Offering
	offered   []string // Sorted ids of the courses with at least one offering
}

// Normalize validates raw records and builds a Catalog from them.
// Courses without an offering are kept as known courses but are not offered; offerings of unknown courses are reported as dropped
func Normalize(raw RawCatalog) (*Catalog, []string, error) {
	var issues []error
	var dropped []string

	courses := make(map[string]Course, len(raw.Courses))
	for _, rawCourse := range raw.Courses {
		course, err := normalizeCourse(rawCourse)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		if _, ok := courses[course.Id]; ok {
			issues = append(issues, fmt.Errorf("duplicate course \"%v\"", course.Id))
			continue
		}
		courses[course.Id] = course
	}

	offerings := make(map[string][]Offering)
	for _, rawOffering := range raw.Offerings {
		if _, ok := courses[rawOffering.CourseId]; !ok {
			dropped = append(dropped, fmt.Sprintf("%v/%v", rawOffering.CourseId, rawOffering.OfferingId))
			continue
		}

		offering, err := normalizeOffering(rawOffering)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		if lo.ContainsBy(offerings[offering.CourseId], func(existing Offering) bool { return existing.Id == offering.Id }) {
			issues = append(issues, fmt.Errorf("duplicate offering \"%v\" for course \"%v\"", offering.Id, offering.CourseId))
			continue
		}
		offerings[offering.CourseId] = append(offerings[offering.CourseId], offering)
	}

	if len(issues) > 0 {
		return nil, dropped, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(issues...))
	}
	if len(courses) == 0 {
		return nil, dropped, ErrEmptyCatalog
	}

	return newCatalog(courses, offerings), dropped, nil
}

func newCatalog(courses map[string]Course, offerings map[string][]Offering) *Catalog {
	offered := lo.Filter(lo.Keys(offerings), func(id string, _ int) bool {
		_, known := courses[id]
		return known && len(offerings[id]) > 0
	})
	slices.Sort(offered)

	return &Catalog{
		courses:   courses,
		offerings: offerings,
		offered:   offered,
	}
}

func normalizeCourse(raw RawCourse) (Course, error) {
	if raw.Id == "" {
		return Course{}, fmt.Errorf("course \"%v\" has no id", raw.Name)
	}
	if raw.Credits < 0 || raw.Credits != math.Trunc(raw.Credits) {
		return Course{}, fmt.Errorf("course \"%v\" must have a non-negative whole number of credits: %v", raw.Id, raw.Credits)
	}

	category, err := ParseCategory(raw.Category)
	if err != nil {
		// Placeholder courses standing for any free elective carry the artificial prefix instead of a category
		if !strings.HasPrefix(strings.ToUpper(raw.Id), artificialPrefix) {
			return Course{}, fmt.Errorf("course \"%v\": %w", raw.Id, err)
		}
		category = FreeElective
	}

	prerequisites := lo.Uniq(lo.Compact(raw.Prerequisites))
	if slices.Contains(prerequisites, raw.Id) {
		return Course{}, fmt.Errorf("course \"%v\" lists itself as a prerequisite", raw.Id)
	}
	slices.Sort(prerequisites)

	return Course{
		Id:            raw.Id,
		Name:          lo.Ternary(raw.Name == "", raw.Id, raw.Name),
		Credits:       int(raw.Credits),
		Category:      category,
		Prerequisites: prerequisites,
	}, nil
}

func normalizeOffering(raw RawOffering) (Offering, error) {
	if raw.OfferingId == "" {
		return Offering{}, fmt.Errorf("offering of course \"%v\" has no id", raw.CourseId)
	}

	blocks := make([]TimeBlock, 0, len(raw.TimeBlocks))
	for _, text := range raw.TimeBlocks {
		block, err := ParseTimeBlock(text)
		if err != nil {
			return Offering{}, fmt.Errorf("offering \"%v\" of course \"%v\": %w", raw.OfferingId, raw.CourseId, err)
		}
		// Blocks of a single offering must not overlap each other
		if lo.ContainsBy(blocks, block.Overlaps) {
			return Offering{}, fmt.Errorf("offering \"%v\" of course \"%v\" has overlapping time blocks", raw.OfferingId, raw.CourseId)
		}
		blocks = append(blocks, block)
	}

	parity, err := ParseParity(raw.Parity)
	if err != nil {
		return Offering{}, fmt.Errorf("offering \"%v\" of course \"%v\": %w", raw.OfferingId, raw.CourseId, err)
	}

	return Offering{
		Id:       raw.OfferingId,
		CourseId: raw.CourseId,
		Blocks:   blocks,
		Parity:   parity,
	}, nil
}

// Lookup returns any known course, offered or not
func (catalog *Catalog) Lookup(id string) (Course, bool) {
	course, ok := catalog.courses[id]
	return course, ok
}

// Offered reports whether the course has at least one offering
func (catalog *Catalog) Offered(id string) bool {
	_, ok := slices.BinarySearch(catalog.offered, id)
	return ok
}

// Courses returns the offered courses sorted by id
func (catalog *Catalog) Courses() []Course {
	return lo.Map(catalog.offered, func(id string, _ int) Course { return catalog.courses[id] })
}

// Ids returns the ids of the offered courses of the given category
func (catalog *Catalog) Ids(category Category) []string {
	return lo.Filter(catalog.offered, func(id string, _ int) bool { return catalog.courses[id].Category == category })
}

func (catalog *Catalog) Offerings(courseId string) []Offering {
	return catalog.offerings[courseId]
}

// Blocks returns the time blocks of an offering
func (catalog *Catalog) Blocks(courseId, offeringId string) []TimeBlock {
	offering, ok := lo.Find(catalog.offerings[courseId], func(offering Offering) bool { return offering.Id == offeringId })
	if !ok {
		return nil
	}
	return offering.Blocks
}

// Parity returns the union of the parities of the course's offerings
func (catalog *Catalog) Parity(courseId string) ParitySet {
	return lo.Reduce(catalog.offerings[courseId], func(set ParitySet, offering Offering, _ int) ParitySet {
		return set.Union(offering.Parity)
	}, ParitySet{})
}

// Len returns the number of offered courses
func (catalog *Catalog) Len() int {
	return len(catalog.offered)
}

// Without returns a catalog where the given courses are no longer known nor offered,
// and are stripped from the prerequisites of every remaining course
func (catalog *Catalog) Without(removed map[string]bool) *Catalog {
	courses := make(map[string]Course, len(catalog.courses))
	for id, course := range catalog.courses {
		if removed[id] {
			continue
		}
		course.Prerequisites = lo.Filter(course.Prerequisites, func(prerequisite string, _ int) bool { return !removed[prerequisite] })
		courses[id] = course
	}

	offerings := make(map[string][]Offering, len(catalog.offerings))
	for id, courseOfferings := range catalog.offerings {
		if !removed[id] {
			offerings[id] = courseOfferings
		}
	}

	return newCatalog(courses, offerings)
}
