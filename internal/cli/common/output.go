package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	switch format {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

// WriteOutput renders value in the selected format. With --query the value
// is filtered through the jq expression first and each result is written.
func WriteOutput[T any](command *cobra.Command, flags *GlobalFlags, value T, renderText func(io.Writer, T) error) error {
	if isNilOutputValue(value) {
		return nil
	}

	format := OutputText
	query := ""
	if flags != nil {
		format = flags.Output
		query = flags.Query
	}

	if query != "" {
		results, err := ApplyQuery(command.Context(), query, value)
		if err != nil {
			return err
		}
		for _, result := range results {
			generic, err := toGeneric(result)
			if err != nil {
				return err
			}
			if err := writeGeneric(command.OutOrStdout(), format, generic); err != nil {
				return err
			}
		}
		return nil
	}

	if format == OutputText && renderText != nil {
		return renderText(command.OutOrStdout(), value)
	}
	generic, err := toGeneric(value)
	if err != nil {
		return err
	}
	return writeGeneric(command.OutOrStdout(), format, generic)
}

func WriteText(command *cobra.Command, flags *GlobalFlags, text string) error {
	return WriteOutput(command, flags, text, func(w io.Writer, value string) error {
		_, err := fmt.Fprintln(w, value)
		return err
	})
}

func writeGeneric(w io.Writer, format string, value any) error {
	switch format {
	case OutputText:
		if text, ok := value.(string); ok {
			_, err := fmt.Fprintln(w, text)
			return err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	case OutputJSON:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	case OutputYAML:
		encoded, err := yaml.Marshal(yamlNumbers(value))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(encoded))
		return err
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

// toGeneric converts value to the map/slice shapes produced by encoding/json,
// which is what both the yaml encoder and gojq expect. Numbers stay
// json.Number so large integers keep every digit.
func toGeneric(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var generic any
	if err := decoder.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// yamlNumbers rewrites json.Number values the yaml encoder would round
// through float64. Integers outside the int64 range become !!int scalars.
func yamlNumbers(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = yamlNumbers(item)
		}
		return converted
	case []any:
		converted := make([]any, len(typed))
		for index, item := range typed {
			converted[index] = yamlNumbers(item)
		}
		return converted
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		if !strings.ContainsAny(typed.String(), ".eE") {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: typed.String()}
		}
		if float, err := typed.Float64(); err == nil {
			return float
		}
		return typed.String()
	default:
		return value
	}
}

func isNilOutputValue[T any](value T) bool {
	anyValue := any(value)
	if anyValue == nil {
		return true
	}

	reflected := reflect.ValueOf(anyValue)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflected.IsNil()
	default:
		return false
	}
}
