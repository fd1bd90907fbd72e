package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// NetworkError is a transport failure: no response was received
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response, or a 2xx response whose body does not
// match the expected schema
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
	// Malformed is set when the message describes a body the client could
	// not decode rather than text sent by the server
	Malformed bool
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
}

// NotFoundError is a 404 from the API
type NotFoundError struct {
	Op      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: not found", e.Op)
	}
	return fmt.Sprintf("%s: not found: %s", e.Op, e.Message)
}

// ValidationError is input rejected either before sending or by the server
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ServerMessage returns the message the server sent with a rejected request,
// if there was one
func ServerMessage(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message, true
	}
	var se *ServerError
	if errors.As(err, &se) && se.StatusCode != 0 && !se.Malformed && se.Message != "" {
		return se.Message, true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Message != "" {
		return nf.Message, true
	}
	return "", false
}

// errorBody extracts a message from an error response body. The API answers
// with {"error": "..."} or {"message": "..."}; anything else is used as text.
func errorBody(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		// HTML error pages carry nothing useful for the user
		return ""
	}
	return truncateText(text, maxErrorText)
}

// maxErrorText bounds a plain-text error body, in runes
const maxErrorText = 200

func truncateText(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
