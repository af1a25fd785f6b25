package application

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/bnema/opq/internal/domain"
)

const (
	errorSentinel  = "[bin-error]"
	fieldSeparator = "---"
	errorTag       = "(ERROR)"

	notSignedInMessage  = "You are not currently signed in"
	unauthorizedMessage = "401: Authentication required"
)

var (
	errMissingSeparator = errors.New("error envelope has no log line separator")
	errMissingErrorTag  = errors.New("error envelope has no error tag")
	errEmptyMessage     = errors.New("error envelope has an empty message")
)

// classify turns captured output into a success payload or a typed error.
// stderr is only consulted when stdout is empty.
func classify(stdout, stderr string) (string, error) {
	text := strings.TrimSpace(stdout)
	if text == "" && strings.HasPrefix(strings.TrimSpace(stderr), errorSentinel) {
		text = strings.TrimSpace(stderr)
	}

	if strings.Contains(text, notSignedInMessage) {
		return "", &domain.SessionError{Message: notSignedInMessage}
	}

	if !strings.HasPrefix(text, errorSentinel) {
		return text, nil
	}

	message, err := envelopeMessage(text)
	if err != nil {
		return "", &domain.ProtocolError{Reason: "malformed error envelope", Output: text, Err: err}
	}

	if strings.Contains(message, unauthorizedMessage) {
		return "", &domain.SessionError{Message: message}
	}

	return "", &domain.QueryError{Message: message}
}

// envelopeMessage extracts the message from
// "[bin-error] <prefix>---<log line> (ERROR) <message>".
func envelopeMessage(text string) (string, error) {
	_, logLine, ok := strings.Cut(text, fieldSeparator)
	if !ok {
		return "", errMissingSeparator
	}

	_, message, ok := strings.Cut(logLine, errorTag)
	if !ok {
		return "", errMissingErrorTag
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errEmptyMessage
	}

	return message, nil
}

func decode[T any](payload string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return v, &domain.ProtocolError{Reason: "decode tool output", Output: payload, Err: err}
	}

	return v, nil
}
