package tonie

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Kind categorizes an API failure by the class of HTTP status that produced it.
type Kind int

const (
	KindGeneric Kind = iota
	KindAuthentication
	KindNotFound
	KindRateLimit
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "generic"
	}
}

// APIError is a classified non-2xx response from the Tonie Cloud API.
// It is constructed once at the client boundary and carries the original
// status code and body for diagnostics.
type APIError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// TokenError is a non-2xx response from the identity provider's token
// endpoint. The session returns it unmodified; remapping into the APIError
// taxonomy happens one layer up.
type TokenError struct {
	StatusCode int
	Body       []byte
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token request rejected with status %d", e.StatusCode)
}

// kindForStatus maps an HTTP status code to an error Kind.
//
//	401, 403      -> authentication
//	404           -> not_found
//	429           -> rate_limit
//	400           -> validation
//	>= 500        -> server
//	anything else -> generic
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusBadRequest:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindGeneric
	}
}

// classify builds an APIError from a status code and raw response body.
// The message comes from a JSON "message" field when present, otherwise the
// raw body text, otherwise a synthesized "HTTP <status>" string.
func classify(status int, body []byte) *APIError {
	var message string

	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Message != "" {
		message = detail.Message
	} else if len(body) > 0 {
		message = string(body)
	} else {
		message = fmt.Sprintf("HTTP %d", status)
	}

	return &APIError{
		Kind:       kindForStatus(status),
		Message:    message,
		StatusCode: status,
		Body:       body,
	}
}

// ClassifyResponse consumes the body of a non-2xx response and converts it
// into a typed APIError.
func ClassifyResponse(resp *http.Response) *APIError {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = nil
	}
	return classify(resp.StatusCode, body)
}
