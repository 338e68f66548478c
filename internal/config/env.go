package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every env tag. INTERNHUB_DB_HOST beats DB_HOST when both are set.
const EnvPrefix = "INTERNHUB_"

// processStructFields walks struct fields and overrides tagged ones from the environment.
func processStructFields(s interface{}) error {
	val := reflect.ValueOf(s)

	// Dereference so both *Config and nested section pointers work
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	// Only structs carry env tags
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()

	// Iterate through all fields of the section
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Sections are nested structs; recurse into them
		if field.Kind() == reflect.Struct {
			if err := processStructFields(field.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue // not overridable
		}

		envValue, exists := lookupEnv(envTag)
		if !exists {
			continue // keep the YAML or default value
		}

		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

// lookupEnv checks the prefixed name first, then the bare tag.
func lookupEnv(tag string) (string, bool) {
	if v, ok := os.LookupEnv(EnvPrefix + tag); ok {
		return v, true
	}
	return os.LookupEnv(tag)
}

// setFieldFromEnv sets a field value from an environment variable string
func setFieldFromEnv(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}
	value = strings.TrimSpace(value)

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			// time.Duration is an int64 kind but is written as "30s"
			duration, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration format: %w", err)
			}
			field.Set(reflect.ValueOf(duration))
			return nil
		}
		// Handle regular integers
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer format: %w", err)
		}
		field.SetInt(intValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean format: %w", err)
		}
		field.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float format: %w", err)
		}
		field.SetFloat(floatValue)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
