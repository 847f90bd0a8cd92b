// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a flag set bound to the tagged fields of
// params, a pointer to a struct. A malformed params struct is a
// programming error and panics.
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag in flagSet for every tagged field of
// params, a pointer to a struct.
//
// Tags:
//
//	flag:"origin,o"    long name and optional one-letter shorthand
//	desc:"..."         help text
//	default:"system"   default, parsed as the field's type
//
// Fields may be string, bool, int or []string. Untagged fields are
// ignored. Embedded structs contribute their own tagged fields, which
// is how [JSONOutput] and [Verbosity] add --json and --verbose.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()
	for index := range structType.NumField() {
		field := structType.Field(index)
		fieldValue := structValue.Field(index)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag, ok := field.Tag.Lookup("flag")
		if !ok || tag == "" {
			continue
		}
		definition := flagDefinition{
			description:  field.Tag.Get("desc"),
			defaultValue: field.Tag.Get("default"),
		}
		definition.name, definition.shorthand, _ = strings.Cut(tag, ",")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}
		if err := definition.bind(fieldValue.Addr().Interface(), flagSet); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

// flagDefinition is one parsed flag tag.
type flagDefinition struct {
	name         string
	shorthand    string
	description  string
	defaultValue string
}

func (definition flagDefinition) bind(target any, flagSet *pflag.FlagSet) error {
	switch target := target.(type) {
	case *string:
		flagSet.StringVarP(target, definition.name, definition.shorthand, definition.defaultValue, definition.description)
	case *bool:
		value, err := parseDefault(definition, strconv.ParseBool)
		if err != nil {
			return err
		}
		flagSet.BoolVarP(target, definition.name, definition.shorthand, value, definition.description)
	case *int:
		value, err := parseDefault(definition, strconv.Atoi)
		if err != nil {
			return err
		}
		flagSet.IntVarP(target, definition.name, definition.shorthand, value, definition.description)
	case *[]string:
		var value []string
		if definition.defaultValue != "" {
			value = strings.Split(definition.defaultValue, ",")
		}
		flagSet.StringSliceVarP(target, definition.name, definition.shorthand, value, definition.description)
	default:
		return fmt.Errorf("unsupported type %T for flag --%s", target, definition.name)
	}
	return nil
}

// parseDefault parses the definition's default, or returns T's zero value
// when there is none.
func parseDefault[T any](definition flagDefinition, parse func(string) (T, error)) (T, error) {
	var zero T
	if definition.defaultValue == "" {
		return zero, nil
	}
	value, err := parse(definition.defaultValue)
	if err != nil {
		return zero, fmt.Errorf("default for --%s: %w", definition.name, err)
	}
	return value, nil
}
