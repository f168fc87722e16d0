package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var ErrMalformedInput = errors.New("malformed catalog input")

// FromJson reads the course list and the offering list from two JSON files, each holding an array of records
func FromJson(coursesFile, offeringsFile string) (RawCatalog, error) {
	courses, err := readJsonFile(coursesFile)
	if err != nil {
		return RawCatalog{}, err
	}
	offerings, err := readJsonFile(offeringsFile)
	if err != nil {
		return RawCatalog{}, err
	}
	return Decode(courses, offerings)
}

// FromJsonReader reads a single document of the form {"courses": [...], "offerings": [...]}
func FromJsonReader(reader io.Reader) (RawCatalog, error) {
	var document struct {
		Courses   any `json:"courses"`
		Offerings any `json:"offerings"`
	}
	if err := json.NewDecoder(reader).Decode(&document); err != nil {
		return RawCatalog{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return Decode(document.Courses, document.Offerings)
}

// Decode maps generic JSON values (as produced by encoding/json into an any) onto raw records
func Decode(courses, offerings any) (RawCatalog, error) {
	var raw RawCatalog
	if err := decodeStrict(courses, &raw.Courses); err != nil {
		return RawCatalog{}, fmt.Errorf("%w: courses: %w", ErrMalformedInput, err)
	}
	if err := decodeStrict(offerings, &raw.Offerings); err != nil {
		return RawCatalog{}, fmt.Errorf("%w: offerings: %w", ErrMalformedInput, err)
	}
	return raw, nil
}

// Field names of the Portuguese catalog exports, mapped onto the record keys
var fieldAliases = map[reflect.Type]map[string]string{
	reflect.TypeOf(RawCourse{}): {
		"nome":          "name",
		"creditos":      "credits",
		"tipo":          "category",
		"prerequisitos": "prerequisites",
	},
	reflect.TypeOf(RawOffering{}): {
		"disciplina_id": "course_id",
		"turma_id":      "offering_id",
		"horario":       "time_blocks",
		"periodo":       "parity",
	},
}

// renameAliases rewrites aliased keys of a record before it is decoded. A record may not carry both a key and its alias
func renameAliases(from reflect.Type, to reflect.Type, data any) (any, error) {
	aliases, ok := fieldAliases[to]
	record, isMap := data.(map[string]any)
	if !ok || !isMap {
		return data, nil
	}

	renamed := make(map[string]any, len(record))
	for key, value := range record {
		if canonical, ok := aliases[key]; ok {
			if _, duplicated := record[canonical]; duplicated {
				return nil, fmt.Errorf("record has both \"%v\" and its alias \"%v\"", canonical, key)
			}
			key = canonical
		}
		renamed[key] = value
	}
	return renamed, nil
}

func decodeStrict(input, output any) error {
	if input == nil {
		return errors.New("missing record list")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  renameAliases,
		ErrorUnused: true,
		Result:      output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func readJsonFile(file string) (any, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	var value any
	if err := json.Unmarshal(bytes, &value); err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrMalformedInput, file, err)
	}
	return value, nil
}
