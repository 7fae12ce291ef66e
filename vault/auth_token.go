package vault

import (
	"context"
	"net/http"
)

const (
	groupToken   = "token"
	tokenBackend = "auth/token"
)

// AuthToken manages the lifecycle of tokens through the token auth backend.
type AuthToken struct {
	conf *Configuration
}

func NewAuthToken(conf *Configuration) *AuthToken {
	return &AuthToken{conf: conf}
}

// Create issues a new token. options is sent as the request body unchanged
// (policies, ttl, meta, ...).
func (a *AuthToken) Create(ctx context.Context, options Object) (*Secret, error) {
	if options == nil {
		options = Object{}
	}

	return a.conf.secret(ctx, apiCall{
		group:    groupToken,
		name:     "create",
		method:   http.MethodPost,
		endpoint: buildEndpoint(tokenBackend, "create"),
		payload:  options,
	}, true)
}

func (a *AuthToken) Renew(ctx context.Context, id string, increment int) (*Secret, error) {
	segment, err := requireSegment("token id", id)
	if err != nil {
		return nil, err
	}

	return a.conf.secret(ctx, apiCall{
		group:    groupToken,
		name:     "renew",
		method:   http.MethodPut,
		endpoint: appendSegment(buildEndpoint(tokenBackend, "renew"), segment),
		payload:  incrementBody(increment),
	}, true)
}

func (a *AuthToken) RenewSelf(ctx context.Context, increment int) (*Secret, error) {
	return a.conf.secret(ctx, apiCall{
		group:    groupToken,
		name:     "renew-self",
		method:   http.MethodPut,
		endpoint: buildEndpoint(tokenBackend, "renew-self"),
		payload:  incrementBody(increment),
	}, true)
}

// RevokeSelf revokes the configured token. The HTTP status is returned
// alongside the error so callers can tell a 204 from a 200.
func (a *AuthToken) RevokeSelf(ctx context.Context) (int, error) {
	return a.conf.execute(ctx, apiCall{
		group:    groupToken,
		name:     "revoke-self",
		method:   http.MethodPost,
		endpoint: buildEndpoint(tokenBackend, "revoke-self"),
	}, acknowledge)
}

// RevokeOrphan revokes the token but leaves its children orphaned.
func (a *AuthToken) RevokeOrphan(ctx context.Context, id string) error {
	segment, err := requireSegment("token id", id)
	if err != nil {
		return err
	}

	return a.conf.exec(ctx, apiCall{
		group:    groupToken,
		name:     "revoke-orphan",
		method:   http.MethodPut,
		endpoint: appendSegment(buildEndpoint(tokenBackend, "revoke-orphan"), segment),
	})
}

// RevokePrefix revokes every token issued under the given auth path prefix.
func (a *AuthToken) RevokePrefix(ctx context.Context, prefix string) error {
	normalized, err := normalizePath(prefix)
	if err != nil {
		return err
	}

	return a.conf.exec(ctx, apiCall{
		group:    groupToken,
		name:     "revoke-prefix",
		method:   http.MethodPut,
		endpoint: buildEndpoint(tokenBackend, "revoke-prefix", normalized),
	})
}

// RevokeTree revokes the token and all of its children.
func (a *AuthToken) RevokeTree(ctx context.Context, id string) error {
	segment, err := requireSegment("token id", id)
	if err != nil {
		return err
	}

	return a.conf.exec(ctx, apiCall{
		group:    groupToken,
		name:     "revoke",
		method:   http.MethodPut,
		endpoint: appendSegment(buildEndpoint(tokenBackend, "revoke"), segment),
	})
}

func incrementBody(increment int) Object {
	return Object{M("increment", Int(int64(increment)))}
}
