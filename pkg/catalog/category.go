package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Category uint8

const (
	Mandatory Category = iota
	RestrictedElective
	ConditionedElective
	FreeElective
)

// ElectiveCategories lists the categories ruled by a credit minimum instead of a per-course requirement
var ElectiveCategories = []Category{RestrictedElective, ConditionedElective, FreeElective}

var categoryNames = [...]string{"mandatory", "restricted-elective", "conditioned-elective", "free-elective"}

// Category aliases accepted at ingestion, compared after lower-casing and trimming
var categoryAliases = map[string]Category{
	"mandatory":            Mandatory,
	"obrigatoria":          Mandatory,
	"obrigatória":          Mandatory,
	"restricted-elective":  RestrictedElective,
	"restricted":           RestrictedElective,
	"escolha restrita":     RestrictedElective,
	"restrita":             RestrictedElective,
	"conditioned-elective": ConditionedElective,
	"conditioned":          ConditionedElective,
	"escolha condicionada": ConditionedElective,
	"condicionada":         ConditionedElective,
	"free-elective":        FreeElective,
	"free":                 FreeElective,
	"livre escolha":        FreeElective,
	"livre":                FreeElective,
}

// Curriculum tags of mandatory courses name the term they belong to (e.g. "3º Período")
var curriculumTermTag = regexp.MustCompile(`^(\d+)\s*[º°o]?\s*per[ií]odo$`)

func (category Category) String() string {
	if int(category) < len(categoryNames) {
		return categoryNames[category]
	}
	return fmt.Sprintf("Category(%d)", uint8(category))
}

func (category Category) Elective() bool {
	return category != Mandatory
}

func (category Category) MarshalText() ([]byte, error) {
	return []byte(category.String()), nil
}

func (category *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*category = parsed
	return nil
}

// ParseCategory maps a catalog tag onto exactly one category. Unknown tags are rejected
func ParseCategory(tag string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if category, ok := categoryAliases[normalized]; ok {
		return category, nil
	}
	if curriculumTermTag.MatchString(normalized) {
		return Mandatory, nil
	}
	return 0, fmt.Errorf("unrecognized category tag \"%v\"", tag)
}

type Parity uint8

const (
	Odd Parity = iota
	Even
)

func ParityOf(term int) Parity {
	if term%2 == 0 {
		return Even
	}
	return Odd
}

func (parity Parity) String() string {
	if parity == Even {
		return "even"
	}
	return "odd"
}

// ParitySet holds the term parities an offering is eligible for
type ParitySet struct {
	Odd  bool `json:"odd"`
	Even bool `json:"even"`
}

var BothParities = ParitySet{Odd: true, Even: true}

func (set ParitySet) Contains(parity Parity) bool {
	if parity == Even {
		return set.Even
	}
	return set.Odd
}

func (set ParitySet) Union(other ParitySet) ParitySet {
	return ParitySet{Odd: set.Odd || other.Odd, Even: set.Even || other.Even}
}

func (set ParitySet) Empty() bool {
	return !set.Odd && !set.Even
}

// ParseParity reads a comma-separated list of curriculum terms: odd values enable odd terms and even values enable even terms.
// An empty tag means the offering is eligible in both
func ParseParity(tag string) (ParitySet, error) {
	if strings.TrimSpace(tag) == "" {
		return BothParities, nil
	}

	set := ParitySet{}
	for _, field := range strings.Split(tag, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		term, err := strconv.Atoi(field)
		if err != nil || term <= 0 {
			return ParitySet{}, fmt.Errorf("invalid term parity tag \"%v\": \"%v\" is not a positive integer", tag, field)
		}
		if ParityOf(term) == Even {
			set.Even = true
		} else {
			set.Odd = true
		}
	}

	if set.Empty() {
		return BothParities, nil
	}
	return set, nil
}
