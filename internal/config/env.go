package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnvironment walks the configuration sections and overrides every field tagged with env whose variable is set.
// Scalars are parsed directly; slices such as the planning gates take a YAML flow document, e.g.
// GRADPLAN_GATES='[{course_id: EST, min_credits: 160}]'
func applyEnvironment(section any) error {
	value := reflect.ValueOf(section)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	for i := range value.NumField() {
		field := value.Field(i)
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnvironment(field.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		variable := value.Type().Field(i).Tag.Get("env")
		if variable == "" {
			continue
		}
		raw, ok := os.LookupEnv(variable)
		if !ok {
			continue
		}
		if err := assign(field, raw); err != nil {
			return fmt.Errorf("%v=%q: %w", variable, raw, err)
		}
	}
	return nil
}

func assign(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch {
	case field.Type() == durationType:
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(duration))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.Kind() == reflect.Int:
		number, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer")
		}
		field.SetInt(int64(number))
	case field.Kind() == reflect.Bool:
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean")
		}
		field.SetBool(flag)
	case field.Kind() == reflect.Slice:
		// Replaces the file's list instead of merging into it
		fresh := reflect.New(field.Type())
		if err := yaml.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
			return fmt.Errorf("not a YAML list: %w", err)
		}
		field.Set(fresh.Elem())
	default:
		return fmt.Errorf("unsupported field type %v", field.Type())
	}
	return nil
}
