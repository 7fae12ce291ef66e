package vault

import (
	"context"
	"net/http"
)

const groupAuth = "auth"

// Authenticate performs logins against the supported auth backends. Logins
// still carry the configured token, if any.
type Authenticate struct {
	conf *Configuration
}

func NewAuthenticate(conf *Configuration) *Authenticate {
	return &Authenticate{conf: conf}
}

// Token looks up token through auth/token/lookup-self, which validates it
// and returns its metadata. An empty token looks up the configured one.
func (a *Authenticate) Token(ctx context.Context, token string) (*Secret, error) {
	return a.conf.secret(ctx, apiCall{
		group:    groupAuth,
		name:     "token",
		method:   http.MethodGet,
		endpoint: buildEndpoint(tokenBackend, "lookup-self"),
		token:    token,
	}, true)
}

func (a *Authenticate) AppID(ctx context.Context, appID string, userID string, options Object) (*Secret, error) {
	if err := requireValue("app id", appID); err != nil {
		return nil, err
	}
	if err := requireValue("user id", userID); err != nil {
		return nil, err
	}

	body := Object{M("app_id", String(appID)), M("user_id", String(userID))}.With(options...)
	return a.login(ctx, "app-id", buildEndpoint("auth/app-id/login"), body)
}

// AppRole logs in with a role id and secret id on the approle backend.
func (a *Authenticate) AppRole(ctx context.Context, roleID string, secretID string, options Object) (*Secret, error) {
	if err := requireValue("role id", roleID); err != nil {
		return nil, err
	}

	body := Object{M("role_id", String(roleID)), M("secret_id", String(secretID))}.With(options...)
	return a.login(ctx, "approle", buildEndpoint("auth/approle/login"), body)
}

func (a *Authenticate) Userpass(ctx context.Context, username string, password string, options Object) (*Secret, error) {
	return a.passwordLogin(ctx, "userpass", username, password, options)
}

func (a *Authenticate) LDAP(ctx context.Context, username string, password string, options Object) (*Secret, error) {
	return a.passwordLogin(ctx, "ldap", username, password, options)
}

func (a *Authenticate) GitHub(ctx context.Context, githubToken string) (*Secret, error) {
	if err := requireValue("github token", githubToken); err != nil {
		return nil, err
	}

	return a.login(ctx, "github", buildEndpoint("auth/github/login"), Object{M("token", String(githubToken))})
}

// passwordLogin posts to auth/<backend>/login/<username>, with the username
// escaped as a single path segment.
func (a *Authenticate) passwordLogin(ctx context.Context, backend string, username string, password string, options Object) (*Secret, error) {
	segment, err := requireSegment("username", username)
	if err != nil {
		return nil, err
	}

	body := Object{M("username", String(username)), M("password", String(password))}.With(options...)
	endpoint := appendSegment(buildEndpoint("auth", backend, "login"), segment)
	return a.login(ctx, backend, endpoint, body)
}

func (a *Authenticate) login(ctx context.Context, name string, endpoint string, body Object) (*Secret, error) {
	return a.conf.secret(ctx, apiCall{
		group:    groupAuth,
		name:     name,
		method:   http.MethodPost,
		endpoint: endpoint,
		payload:  body,
	}, true)
}
