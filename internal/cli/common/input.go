package common

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/crmarques/vaultapi/vault"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const (
	stdinFileIndicator = "-"
	maxInputBytes      = 4 << 20
)

// ReadObject returns the request body given through --data, --payload or
// key=value arguments. The sources are exclusive; when none is given the
// result is nil.
func ReadObject(command *cobra.Command, flags InputFlags, assignments []string) (vault.Object, error) {
	sources := 0
	for _, used := range []bool{flags.Data != "", flags.Payload != "", len(assignments) > 0} {
		if used {
			sources++
		}
	}
	if sources > 1 {
		return nil, ValidationError("use only one of --data, --payload or key=value arguments", nil)
	}

	switch {
	case flags.Data != "":
		return vault.ParseObject([]byte(flags.Data))
	case flags.Payload != "":
		data, err := readPayload(command, flags.Payload)
		if err != nil {
			return nil, err
		}
		return DecodeObject(data, flags.Format)
	case len(assignments) > 0:
		return ParseAssignments(assignments)
	default:
		return nil, nil
	}
}

// DecodeObject parses a JSON or YAML object, keeping the document's key order.
func DecodeObject(data []byte, format string) (vault.Object, error) {
	switch format {
	case "", OutputJSON:
		return vault.ParseObject(data)
	case OutputYAML:
		var document yaml.Node
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, ValidationError("invalid yaml input", err)
		}
		value, err := yamlNodeValue(&document)
		if err != nil {
			return nil, err
		}
		object, ok := value.(vault.Object)
		if !ok {
			return nil, ValidationError("invalid yaml input: top-level value is not a mapping", nil)
		}
		return object, nil
	default:
		return nil, ValidationError("invalid input format: use json or yaml", nil)
	}
}

func yamlNodeValue(node *yaml.Node) (vault.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, ValidationError("input is empty", nil)
		}
		return yamlNodeValue(node.Content[0])
	case yaml.AliasNode:
		return yamlNodeValue(node.Alias)
	case yaml.MappingNode:
		object := make(vault.Object, 0, len(node.Content)/2)
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			value, err := yamlNodeValue(node.Content[idx+1])
			if err != nil {
				return nil, err
			}
			object = append(object, vault.M(node.Content[idx].Value, value))
		}
		return object, nil
	case yaml.SequenceNode:
		array := make(vault.Array, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := yamlNodeValue(item)
			if err != nil {
				return nil, err
			}
			array = append(array, value)
		}
		return array, nil
	default:
		var scalar any
		if err := node.Decode(&scalar); err != nil {
			return nil, ValidationError("invalid yaml scalar", err)
		}
		return vault.ValueOf(scalar)
	}
}

func readPayload(command *cobra.Command, payload string) ([]byte, error) {
	var reader io.Reader
	if payload == stdinFileIndicator {
		reader = command.InOrStdin()
	} else {
		file, err := os.Open(payload)
		if err != nil {
			return nil, ValidationError("failed to open payload file", err)
		}
		defer file.Close()
		reader = file
	}

	data, err := readAllWithLimit(reader, maxInputBytes)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ValidationError("input is empty", nil)
	}
	return data, nil
}

func readAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, ValidationError("failed to read input", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ValidationError("input exceeds maximum supported size", errors.New("input too large"))
	}
	return data, nil
}

// ParseAssignments builds an object from key=value arguments. key=@file
// reads the value from a file and key:=<json> embeds a raw JSON value.
func ParseAssignments(args []string) (vault.Object, error) {
	object := make(vault.Object, 0, len(args))
	for _, arg := range args {
		key, value, err := parseAssignment(arg)
		if err != nil {
			return nil, err
		}
		object = append(object, vault.M(key, value))
	}
	return object, nil
}

func parseAssignment(arg string) (string, vault.Value, error) {
	separator := strings.Index(arg, "=")
	if separator <= 0 {
		return "", nil, ValidationError("invalid assignment "+arg+": expected key=value", nil)
	}

	key := arg[:separator]
	raw := arg[separator+1:]

	if strings.HasSuffix(key, ":") {
		key = strings.TrimSuffix(key, ":")
		if key == "" {
			return "", nil, ValidationError("invalid assignment "+arg+": key must not be empty", nil)
		}
		wrapped, err := vault.ParseObject([]byte(`{"v":` + raw + `}`))
		if err != nil || len(wrapped) != 1 {
			return "", nil, ValidationError("invalid JSON value for "+key, err)
		}
		value, _ := wrapped.Get("v")
		return key, value, nil
	}

	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return "", nil, ValidationError("failed to read value file for "+key, err)
		}
		return key, vault.String(strings.TrimRight(string(data), "\n")), nil
	}

	return key, vault.String(raw), nil
}
