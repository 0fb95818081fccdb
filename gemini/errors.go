package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyPrompt is returned for a blank description or animation prompt
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrEmptyImage is returned when a video request has no source image
	ErrEmptyImage = errors.New("source image is required")

	// ErrMissingAPIKey is returned when no API key was provided
	ErrMissingAPIKey = errors.New("API key is required")
)

// APIError represents an error from the Gemini API
type APIError struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Status)
	}
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
	return e.Message
}

// GenerationError reports a call that succeeded but produced nothing usable.
type GenerationError struct {
	Stage  string
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

// NetworkError reports a failed download of the finished video.
type NetworkError struct {
	StatusCode int
	Status     string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch video: %s", e.Status)
}

// entityNotFound is what AI Studio returns for a key that does not belong to
// a project with access to the model.
const entityNotFound = "Requested entity was not found."

var rejectedKeyMessages = []string{
	entityNotFound,
	"API key not valid",
	"API_KEY_INVALID",
}

// IsCredentialRejected reports whether err means the API key was rejected.
// Structured API errors are classified by status first; the message match is
// the fallback for errors that only carry text.
func IsCredentialRejected(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case "UNAUTHENTICATED":
			return true
		case "NOT_FOUND", "PERMISSION_DENIED", "INVALID_ARGUMENT":
			return containsRejectedKeyMessage(apiErr.Message)
		}
		if apiErr.StatusCode == http.StatusUnauthorized {
			return true
		}
	}

	return containsRejectedKeyMessage(err.Error())
}

func containsRejectedKeyMessage(msg string) bool {
	for _, m := range rejectedKeyMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
