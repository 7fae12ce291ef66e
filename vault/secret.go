package vault

import (
	"encoding/json"
	"strings"
)

// Secret is the generic response envelope. Structural responses (token
// lookups, mount listings) reuse it; Data keys are never interpreted here.
type Secret struct {
	RequestID     string         `json:"request_id,omitempty"`
	LeaseID       string         `json:"lease_id,omitempty"`
	Renewable     bool           `json:"renewable,omitempty"`
	LeaseDuration int            `json:"lease_duration,omitempty"`
	Data          map[string]any `json:"data"`
	Warnings      []string       `json:"warnings,omitempty"`
	Auth          *SecretAuth    `json:"auth,omitempty"`
}

// SecretAuth is present on responses that issue a token.
type SecretAuth struct {
	ClientToken   string            `json:"client_token"`
	Accessor      string            `json:"accessor"`
	Policies      []string          `json:"policies"`
	TokenPolicies []string          `json:"token_policies,omitempty"`
	Metadata      map[string]string `json:"metadata"`
	LeaseDuration int               `json:"lease_duration"`
	Renewable     bool              `json:"renewable"`
}

// ClientToken returns the token carried by the response: auth.client_token
// for logins and token creation, data.id for token lookups.
func (s *Secret) ClientToken() string {
	if s == nil {
		return ""
	}
	if s.Auth != nil && s.Auth.ClientToken != "" {
		return s.Auth.ClientToken
	}
	if id, ok := s.Data["id"].(string); ok {
		return id
	}
	return ""
}

// ErrorResponse is the service's error envelope. It is the cause of every
// faults.ServiceError returned by this package.
type ErrorResponse struct {
	StatusCode int      `json:"-"`
	Errors     []string `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if e == nil {
		return "<nil>"
	}

	messages := make([]string, 0, len(e.Errors))
	for _, message := range e.Errors {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			messages = append(messages, trimmed)
		}
	}
	if len(messages) == 0 {
		return "empty or undecodable error body (HTTP " + statusText(e.StatusCode) + ")"
	}
	return strings.Join(messages, ", ")
}

func decodeErrorResponse(status int, body []byte) *ErrorResponse {
	response := &ErrorResponse{StatusCode: status}
	if len(body) == 0 {
		return response
	}

	var envelope struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return response
	}
	response.Errors = envelope.Errors
	return response
}
