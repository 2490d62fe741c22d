package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a send is attempted while an exchange is in flight
	ErrBusy = errors.New("an exchange is already in progress")
	// ErrEmptyMessage is returned when the message is blank
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidSessionID is returned for ids that cannot name a cache file
	ErrInvalidSessionID = errors.New("invalid session id")
)

// TransportError represents network or stream failures talking to the backend
type TransportError struct {
	Op  string // "create session", "stream", "read"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendError represents a non-2xx response from the backend
type BackendError struct {
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend error: status %d", e.Status)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.Status, e.Detail)
}

// DecodeError represents a stream line that could not be parsed
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PersistenceError represents a failed session create/list/load/delete call
type PersistenceError struct {
	Op        string // "create", "list", "load", "delete"
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CacheError represents errors reading or writing local cache and archive files
type CacheError struct {
	Path string
	Op   string // "open", "read", "write"
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
