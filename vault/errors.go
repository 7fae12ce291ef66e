package vault

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crmarques/vaultapi/faults"
)

// StatusCode returns the HTTP status of a service failure, or 0 when err did
// not come from a non-success response.
func StatusCode(err error) int {
	var response *ErrorResponse
	if !errors.As(err, &response) {
		return 0
	}
	return response.StatusCode
}

func statusText(status int) string {
	text := strconv.Itoa(status)
	if description := http.StatusText(status); description != "" {
		text += " " + description
	}
	return text
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func transportError(message string, cause error) error {
	return faults.NewTypedError(faults.TransportError, message, cause)
}

func serviceError(response *ErrorResponse) error {
	return faults.NewTypedError(faults.ServiceError, "", response)
}

func decodeError(message string, cause error) error {
	return faults.NewTypedError(faults.DecodeError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
