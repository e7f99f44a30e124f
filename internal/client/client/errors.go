package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/bidmarket/internal/common"
)

// GenericErrorMessage is shown when the server gives no message of its own.
const GenericErrorMessage = "Something went wrong. Please try again."

// APIError is a non-2xx response. Message is the server-provided message or
// GenericErrorMessage.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets callers match status classes with the common sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case common.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func (e *APIError) String() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}
