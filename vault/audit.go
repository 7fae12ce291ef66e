package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const (
	groupAudit = "audit"
	auditPath  = "sys/audit"
)

// AuditMount describes one enabled audit device.
type AuditMount struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Options     map[string]string `json:"options"`
	Path        string            `json:"path,omitempty"`
	Local       bool              `json:"local,omitempty"`
}

// Audit administers audit devices under sys/audit.
type Audit struct {
	conf *Configuration
}

func NewAudit(conf *Configuration) *Audit {
	return &Audit{conf: conf}
}

// List returns the enabled audit devices keyed by mount path.
func (a *Audit) List(ctx context.Context) (map[string]AuditMount, error) {
	var mounts map[string]AuditMount
	_, err := a.conf.execute(ctx, apiCall{
		group:    groupAudit,
		name:     "list",
		method:   http.MethodGet,
		endpoint: buildEndpoint(auditPath),
	}, func(response apiResponse) error {
		decoded, err := decodeAuditMounts(response.body)
		if err != nil {
			return err
		}
		mounts = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mounts, nil
}

// Enable mounts an audit device of deviceType at path. options are the
// device-specific settings, such as file_path for the file device.
func (a *Audit) Enable(ctx context.Context, path string, deviceType string, description string, options Object) error {
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}
	if err := requireValue("audit device type", deviceType); err != nil {
		return err
	}
	if options == nil {
		options = Object{}
	}

	return a.conf.exec(ctx, apiCall{
		group:    groupAudit,
		name:     "enable",
		method:   http.MethodPut,
		endpoint: buildEndpoint(auditPath, normalized),
		payload: Object{
			M("type", String(deviceType)),
			M("description", String(description)),
			M("options", options),
		},
	})
}

func (a *Audit) Disable(ctx context.Context, path string) error {
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}

	return a.conf.exec(ctx, apiCall{
		group:    groupAudit,
		name:     "disable",
		method:   http.MethodDelete,
		endpoint: buildEndpoint(auditPath, normalized),
	})
}

// decodeAuditMounts accepts both the legacy response, where mounts are
// top-level keys, and the enveloped one carrying them under "data". Keys
// whose value is not an object (request_id, lease fields, ...) are skipped.
func decodeAuditMounts(body []byte) (map[string]AuditMount, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, decodeError("vault response body is empty", nil)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, decodeError("failed to decode audit device list", err)
	}
	if entries == nil {
		return nil, decodeError("vault response body is not a JSON object", nil)
	}

	if raw, found := entries["data"]; found && isJSONObject(raw) {
		var data map[string]json.RawMessage
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, decodeError("failed to decode audit device list", err)
		}
		entries = data
	}

	mounts := make(map[string]AuditMount, len(entries))
	for path, raw := range entries {
		if !isJSONObject(raw) {
			continue
		}
		var mount AuditMount
		if err := json.Unmarshal(raw, &mount); err != nil {
			return nil, decodeError("failed to decode audit device "+path, err)
		}
		mounts[path] = mount
	}
	return mounts, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
