package inventory

import (
	"errors"
	"fmt"
)

// ErrInvalidPage is returned when a page request falls outside page >= 1 and
// limit > 0. No request is sent.
var ErrInvalidPage = errors.New("invalid page request")

// TransportError reports that the backend could not be reached: connection
// refused, DNS failure, timeout or cancellation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response, or a 2xx response whose body could
// not be decoded.
type ServerError struct {
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("api %s: decode response: %v", e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
}

func (e *ServerError) Unwrap() error { return e.Err }

// MalformedRecordError marks a sale entry that cannot be reconciled because it
// lacks an identity or could not be decoded.
type MalformedRecordError struct {
	Index  int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed sale record at index %d: %s", e.Index, e.Reason)
}

// Error kinds reported by Kind.
const (
	KindOK        = "ok"
	KindTransport = "transport"
	KindServer    = "server"
	KindMalformed = "malformed"
	KindOther     = "other"
)

// Kind classifies err for metrics labels and user messages.
func Kind(err error) string {
	if err == nil {
		return KindOK
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return KindTransport
	}
	var server *ServerError
	if errors.As(err, &server) {
		return KindServer
	}
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		return KindMalformed
	}
	return KindOther
}

// Describe turns err into a short message suitable for an alert banner.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return "backend unreachable: " + transport.Err.Error()
	}
	var server *ServerError
	if errors.As(err, &server) {
		if server.Err != nil {
			return "unexpected response from backend"
		}
		if server.Message != "" {
			return fmt.Sprintf("backend error %d: %s", server.StatusCode, server.Message)
		}
		return fmt.Sprintf("backend error %d", server.StatusCode)
	}
	return err.Error()
}
