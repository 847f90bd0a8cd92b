// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// JSONOutput adds a --json flag to a command's parameter struct.
//
//	var params struct {
//	    stateParams
//	    cli.JSONOutput
//	}
//
//	// In Run:
//	if done, err := params.EmitJSON(rows); done {
//	    return err
//	}
//	// render the table
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result to stdout when --json is set and reports
// whether it did. When it returns false the caller renders text.
func (output *JSONOutput) EmitJSON(result any) (bool, error) {
	if !output.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(os.Stdout, result)
}

// WriteJSON writes value to w as indented JSON. A nil slice or map at
// the top level is written as [] or {} rather than null.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(emptyIfNil(value))
}

func emptyIfNil(value any) any {
	reflected := reflect.ValueOf(value)
	switch {
	case reflected.Kind() == reflect.Slice && reflected.IsNil():
		return reflect.MakeSlice(reflected.Type(), 0, 0).Interface()
	case reflected.Kind() == reflect.Map && reflected.IsNil():
		return reflect.MakeMap(reflected.Type()).Interface()
	}
	return value
}
