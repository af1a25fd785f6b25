package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSession  = errors.New("session error")
	ErrQuery    = errors.New("query error")
	ErrProtocol = errors.New("protocol error")
	ErrSpawn    = errors.New("spawn error")

	ErrSessionNotFound = errors.New("no stored session")
	ErrSecretNotFound  = errors.New("secret not found")
)

// SessionError means the session is expired, missing, or rejected by the tool.
// Callers recover by signing in again.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string {
	return "session: " + e.Message
}

func (e *SessionError) Is(target error) bool {
	return target == ErrSession
}

// QueryError carries a domain rejection from the tool (e.g. not found) verbatim.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return "query: " + e.Message
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// ProtocolError means the tool's output matched neither envelope. Not retried.
type ProtocolError struct {
	Reason string
	Output string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}

	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// SpawnError means the executable could not be started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}
