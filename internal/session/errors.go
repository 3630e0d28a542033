package session

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// GlobalKey is the ErrorState key written by Transport.
const GlobalKey = "global"

// ErrorState is a keyed set of user-facing error messages.
type ErrorState struct {
	mu     sync.RWMutex
	errors map[string]string
}

func NewErrorState() *ErrorState {
	return &ErrorState{errors: map[string]string{}}
}

func (e *ErrorState) Set(key, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors[key] = message
}

func (e *ErrorState) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	msg, ok := e.errors[key]
	return msg, ok
}

func (e *ErrorState) Clear(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.errors, key)
}

// All returns a copy of every recorded message.
func (e *ErrorState) All() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// HTTPError is a failed API call with its user-facing message.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Describe turns a failed response into the message shown to the user.
// Known statuses get fixed messages; others use the body's "message" field,
// joining lists with ", ".
func Describe(status int, body []byte) string {
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized. Please login again."
	case http.StatusForbidden:
		return "Access forbidden"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusInternalServerError:
		return "Internal server error"
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Message) > 0 {
		var text string
		if json.Unmarshal(payload.Message, &text) == nil && text != "" {
			return text
		}
		var list []string
		if json.Unmarshal(payload.Message, &list) == nil && len(list) > 0 {
			return strings.Join(list, ", ")
		}
	}
	return fmt.Sprintf("Error: %d - %s", status, http.StatusText(status))
}
