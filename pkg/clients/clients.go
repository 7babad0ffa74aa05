// Package clients holds thin HTTP wrappers around the user directory and the
// product catalog. Every call is a fresh round trip with no retries and no
// caching; outcomes classify into not-found, unreachable, or malformed.
package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrNotFound means the collaborator answered and the entity does not exist.
	ErrNotFound = errors.New("remote: not found")
	// ErrUnreachable means the call could not be completed: network failure,
	// timeout, or an unexpected status from the collaborator.
	ErrUnreachable = errors.New("remote: unreachable")
	// ErrMalformed means the collaborator answered with a body that could not
	// be decoded.
	ErrMalformed = errors.New("remote: malformed response")
	// ErrRejected means the collaborator validly refused the mutation, e.g.
	// the catalog reporting insufficient stock on a deduction.
	ErrRejected = errors.New("remote: request rejected")
)

// envelope is the response wrapper both collaborators use.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
