package webhook

import (
	"fmt"
	"strings"

	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
)

// FallbackProcessingMessage is shown when the webhook reports failure without a message.
const FallbackProcessingMessage = "Processing failed"

// TransportError is a sanitized summary of a non-2xx webhook response.
//
// Important: do not include raw response bodies here (can leak PII/tokens).
type TransportError struct {
	StatusCode int
	Status     string

	// Snippet is a redacted, truncated hint of the response body.
	Snippet string
}

func (e *TransportError) Error() string {
	if e == nil {
		return "webhook request failed"
	}
	msg := fmt.Sprintf("webhook request failed: HTTP %d", e.StatusCode)
	if status := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprint(e.StatusCode))); status != "" {
		msg += " " + status
	}
	if strings.TrimSpace(e.Snippet) != "" {
		msg += " body=" + strings.TrimSpace(e.Snippet)
	}
	return msg
}

// ProcessingError is a well-formed webhook response that reports failure.
type ProcessingError struct {
	Status  string
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e == nil || strings.TrimSpace(e.Message) == "" {
		return FallbackProcessingMessage
	}
	return strings.TrimSpace(e.Message)
}

func (e *ProcessingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newTransportError(statusCode int, status string, body []byte) *TransportError {
	return &TransportError{
		StatusCode: statusCode,
		Status:     status,
		Snippet:    redactAndTruncate(body),
	}
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	// Keep this small: response bodies can contain sensitive data.
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
