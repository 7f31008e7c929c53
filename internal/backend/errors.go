package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type FailureKind string

const (
	// FailureTimeout means the bounded call expired; the backend may have
	// received the write.
	FailureTimeout FailureKind = "timeout"
	// FailureNetwork means no response was received at all.
	FailureNetwork FailureKind = "network"
	// FailureRejected is a 4xx with a structured message.
	FailureRejected FailureKind = "rejected"
	// FailureServer is a 5xx.
	FailureServer FailureKind = "server"
)

// Failure is a typed backend failure carrying a normalized, human-readable
// message. Status is the HTTP status when one was received, else 0.
type Failure struct {
	Kind    FailureKind
	Message string
	Status  int
}

func (f *Failure) Error() string {
	return f.Message
}

// apiError is the backend's structured error body. The message field can be
// a single string or an array of strings.
type apiError struct {
	Message apiMessage `json:"message"`
}

type apiMessage string

func (m *apiMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = apiMessage(single)
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*m = apiMessage(strings.Join(many, "; "))
		return nil
	}
	return fmt.Errorf("unsupported message shape: %s", string(data))
}

// normalizeStatus builds a Failure for an HTTP error status, preferring the
// backend-supplied message text over the status-specific fallback.
func normalizeStatus(status int, body []byte) *Failure {
	message := ""
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		message = string(apiErr.Message)
	}

	if status >= 500 {
		if message == "" {
			message = "server error"
		}
		return &Failure{Kind: FailureServer, Message: message, Status: status}
	}

	if message == "" {
		switch status {
		case http.StatusBadRequest:
			message = "invalid data"
		case http.StatusUnauthorized:
			message = "invalid credentials"
		default:
			message = strings.ToLower(http.StatusText(status))
		}
	}
	return &Failure{Kind: FailureRejected, Message: message, Status: status}
}
