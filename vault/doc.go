// Package vault is a client for the Vault HTTP API.
//
// A Configuration holds the server address, the access token and the
// transport. It is immutable and is passed to each endpoint group:
//
//	conf, err := vault.NewConfiguration("https://vault.example.com:8200", token)
//	if err != nil {
//		return err
//	}
//	secret, err := vault.NewLogical(conf).Read(ctx, "secret/app/db")
//
// Every operation issues exactly one HTTP request. Failures are
// *faults.TypedError values: TransportError when no response arrived,
// ServiceError (wrapping *ErrorResponse) for non-2xx responses and
// DecodeError for success responses with an unexpected body.
package vault
