package vault

import (
	"context"
	"net/http"
	"net/url"
)

const groupLogical = "logical"

// Logical reads and writes arbitrary paths under /v1.
type Logical struct {
	conf *Configuration
}

func NewLogical(conf *Configuration) *Logical {
	return &Logical{conf: conf}
}

// List issues GET <path>?list=true.
func (l *Logical) List(ctx context.Context, path string) (*Secret, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return l.conf.secret(ctx, apiCall{
		group:    groupLogical,
		name:     "list",
		method:   http.MethodGet,
		endpoint: buildEndpoint(normalized),
		query:    url.Values{"list": []string{"true"}},
	}, true)
}

func (l *Logical) Read(ctx context.Context, path string) (*Secret, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return l.conf.secret(ctx, apiCall{
		group:    groupLogical,
		name:     "read",
		method:   http.MethodGet,
		endpoint: buildEndpoint(normalized),
	}, true)
}

// Write stores data at path. Backends that answer with an empty body
// (204 No Content) yield a nil Secret.
func (l *Logical) Write(ctx context.Context, path string, data Object) (*Secret, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = Object{}
	}

	return l.conf.secret(ctx, apiCall{
		group:    groupLogical,
		name:     "write",
		method:   http.MethodPut,
		endpoint: buildEndpoint(normalized),
		payload:  data,
	}, false)
}

func (l *Logical) Delete(ctx context.Context, path string) error {
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}

	return l.conf.exec(ctx, apiCall{
		group:    groupLogical,
		name:     "delete",
		method:   http.MethodDelete,
		endpoint: buildEndpoint(normalized),
	})
}
