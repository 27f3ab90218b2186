package identity

import "fmt"

// ErrNotFound means the identifier is well-formed but no identity exists
// for it. The HTTP layer maps this to 404.
type ErrNotFound struct {
	Identifier string
	Reason     string
}

func (e *ErrNotFound) Error() string {
	msg := "no identity for " + e.Identifier
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ErrInvalidIdentifier means the input is neither a valid handle nor a
// valid DID. No network resolution was attempted.
type ErrInvalidIdentifier struct {
	Identifier string
	Reason     string
}

func (e *ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("%q is not a handle or DID: %s", e.Identifier, e.Reason)
}

// ErrResolutionFailed covers transient failures (network, PLC outage)
// where retrying later may succeed.
type ErrResolutionFailed struct {
	Identifier string
	Reason     string
}

func (e *ErrResolutionFailed) Error() string {
	return fmt.Sprintf("could not resolve %s: %s", e.Identifier, e.Reason)
}
