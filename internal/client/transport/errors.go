package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/ragdesk/internal/common"
)

// Error is a classified request failure. It matches its Kind sentinel with
// errors.Is and, for network failures, the underlying cause as well.
type Error struct {
	Kind    error
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Method, e.Path, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %v (status %d): %s", e.Method, e.Path, e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify maps an HTTP status to its failure kind; 2xx yields nil.
func Classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return common.ErrAuthExpired
	case status == http.StatusForbidden:
		return common.ErrForbidden
	case status == http.StatusNotFound:
		return common.ErrNotFound
	case status >= 500:
		return common.ErrServerError
	default:
		return common.ErrRequestFailed
	}
}

const maxMessageLen = 256

// errorMessage pulls a human readable message out of an error body. It
// understands {"detail": ...} and {"message": ...}; anything else falls back
// to the trimmed body or the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
			var s string
			if err := json.Unmarshal(payload.Detail, &s); err == nil {
				return s
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, payload.Detail); err == nil {
				return truncate(compact.String())
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return truncate(text)
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// truncate cuts s to maxMessageLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	n := maxMessageLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
