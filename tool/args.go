// ABOUTME: Strict decoding of model-produced call arguments against a tool's
// ABOUTME: input schema - never evaluates, rejects undeclared and missing fields.
package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrInvalidArguments marks arguments rejected before reaching the tool.
var ErrInvalidArguments = errors.New("invalid arguments")

// DecodeArguments parses raw as a JSON object and checks it against schema.
//
// An empty raw string means no arguments. Fields not listed in the schema's
// properties are rejected unless additionalProperties is true. Every field
// in required must be present, and a declared primitive "type" must match.
// Numbers are kept as json.Number so integers pass through unchanged.
func DecodeArguments(raw string, schema map[string]any) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidArguments, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after arguments object", ErrInvalidArguments)
	}

	args, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrInvalidArguments, jsonKind(raw))
	}

	if err := checkFields(args, schema); err != nil {
		return nil, err
	}
	return args, nil
}

func checkFields(args map[string]any, schema map[string]any) error {
	props, hasProps := schema["properties"].(map[string]any)
	open, _ := schema["additionalProperties"].(bool)

	if hasProps && !open {
		var unknown []string
		for name := range args {
			if _, declared := props[name]; !declared {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return fmt.Errorf("%w: undeclared field(s) %s", ErrInvalidArguments, strings.Join(unknown, ", "))
		}
	}

	if hasProps {
		names := make([]string, 0, len(args))
		for name := range args {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			def, _ := props[name].(map[string]any)
			want, _ := def["type"].(string)
			if want != "" && !matchesType(args[name], want) {
				return fmt.Errorf("%w: field %s must be %s", ErrInvalidArguments, name, want)
			}
		}
	}

	var missing []string
	for _, name := range requiredFields(schema) {
		if _, present := args[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required field(s) %s", ErrInvalidArguments, strings.Join(missing, ", "))
	}
	return nil
}

func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// matchesType reports whether a decoded value fits a JSON Schema primitive
// type. Unknown type names match anything.
func matchesType(value any, want string) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(json.Number)
		return ok
	case "integer":
		n, ok := value.(json.Number)
		if !ok {
			return false
		}
		_, err := n.Int64()
		return err == nil
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	}
	return true
}

func jsonKind(raw string) string {
	switch {
	case strings.HasPrefix(raw, "["):
		return "array"
	case strings.HasPrefix(raw, `"`):
		return "string"
	case raw == "null":
		return "null"
	case raw == "true" || raw == "false":
		return "boolean"
	case strings.ContainsAny(raw[:1], "-0123456789"):
		return "number"
	}
	return "value"
}
