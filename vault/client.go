package vault

// Client bundles the endpoint groups built from one Configuration.
type Client struct {
	Logical      *Logical
	AuthToken    *AuthToken
	Authenticate *Authenticate
	Audit        *Audit
}

func NewClient(conf *Configuration) *Client {
	return &Client{
		Logical:      NewLogical(conf),
		AuthToken:    NewAuthToken(conf),
		Authenticate: NewAuthenticate(conf),
		Audit:        NewAudit(conf),
	}
}
