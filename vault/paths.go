package vault

import (
	"net/url"
	"strings"
)

const apiVersion = "v1"

// normalizePath strips leading and trailing slashes from a caller path and
// rejects empty, "." and ".." segments. Other characters, whitespace
// included, are kept and escaped later.
func normalizePath(value string) (string, error) {
	trimmed := strings.Trim(value, "/")
	if strings.TrimSpace(trimmed) == "" {
		return "", validationError("path is required", nil)
	}

	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", validationError("path contains invalid segments", nil)
		}
	}

	return strings.Join(parts, "/"), nil
}

func requireValue(name string, value string) error {
	if strings.TrimSpace(value) == "" {
		return validationError(name+" is required", nil)
	}
	return nil
}

// requireSegment validates an identifier that is embedded in a path as one
// segment, such as a token id or a username.
func requireSegment(name string, value string) (string, error) {
	if err := requireValue(name, value); err != nil {
		return "", err
	}
	if value == "." || value == ".." {
		return "", validationError(name+" is not a valid path segment", nil)
	}
	return value, nil
}

// buildEndpoint joins parts under /v1. Each part may hold several
// slash-separated segments; every segment is escaped on its own.
func buildEndpoint(parts ...string) string {
	encoded := make([]string, 0, len(parts)+1)
	encoded = append(encoded, apiVersion)

	for _, part := range parts {
		for _, segment := range strings.Split(part, "/") {
			if segment == "" {
				continue
			}
			encoded = append(encoded, url.PathEscape(segment))
		}
	}

	return "/" + strings.Join(encoded, "/")
}

// appendSegment escapes segment as a whole, so a "/" inside it is sent as %2F.
func appendSegment(endpoint string, segment string) string {
	return endpoint + "/" + url.PathEscape(segment)
}
