package internal

import (
	"encoding/json"
	"fmt"
)

// Wire values of the "type" discriminator on the chat stream
const (
	EventTypeLog         = "log"
	EventTypeToken       = "token"
	EventTypeFinalResult = "final_result"
	EventTypeError       = "error"
)

// StreamEvent is one decoded record of the chat stream.
// The set of variants is closed; handle them through EventHandler.
type StreamEvent interface {
	Accept(h EventHandler)
	streamEvent()
}

// EventHandler receives each StreamEvent variant
type EventHandler interface {
	HandleLog(LogEvent)
	HandleToken(TokenEvent)
	HandleFinalResult(FinalResultEvent)
	HandleError(ErrorEvent)
	HandleUnknown(UnknownEvent)
}

// LogEvent reports a tool invocation starting or finishing
type LogEvent struct {
	Status       LogStatus
	Title        string
	Detail       string
	InvocationID string
}

// TokenEvent carries an incremental piece of assistant output
type TokenEvent struct {
	Content string
}

// FinalResultEvent ends the exchange successfully
type FinalResultEvent struct {
	Message string
}

// ErrorEvent ends the exchange with a backend-reported error
type ErrorEvent struct {
	Message string
}

// UnknownEvent is a well-formed record with an unrecognized type
type UnknownEvent struct {
	Type string
}

func (e LogEvent) Accept(h EventHandler)         { h.HandleLog(e) }
func (e TokenEvent) Accept(h EventHandler)       { h.HandleToken(e) }
func (e FinalResultEvent) Accept(h EventHandler) { h.HandleFinalResult(e) }
func (e ErrorEvent) Accept(h EventHandler)       { h.HandleError(e) }
func (e UnknownEvent) Accept(h EventHandler)     { h.HandleUnknown(e) }

func (LogEvent) streamEvent()         {}
func (TokenEvent) streamEvent()       {}
func (FinalResultEvent) streamEvent() {}
func (ErrorEvent) streamEvent()       {}
func (UnknownEvent) streamEvent()     {}

// rawEvent mirrors the loosely typed wire record
type rawEvent struct {
	Type         string `json:"type"`
	Status       string `json:"status,omitempty"`
	Title        string `json:"title,omitempty"`
	Detail       string `json:"detail,omitempty"`
	Content      string `json:"content,omitempty"`
	Message      string `json:"message,omitempty"`
	InvocationID string `json:"invocation_id,omitempty"`
}

// ParseStreamEvent decodes a single stream line into its variant
func ParseStreamEvent(line []byte) (StreamEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, err
	}

	switch raw.Type {
	case EventTypeLog:
		status := LogStatus(raw.Status)
		switch status {
		case LogStatusRunning, LogStatusSuccess, LogStatusError:
		default:
			return nil, fmt.Errorf("invalid log status %q", raw.Status)
		}
		return LogEvent{
			Status:       status,
			Title:        raw.Title,
			Detail:       raw.Detail,
			InvocationID: raw.InvocationID,
		}, nil
	case EventTypeToken:
		return TokenEvent{Content: raw.Content}, nil
	case EventTypeFinalResult:
		return FinalResultEvent{Message: raw.Message}, nil
	case EventTypeError:
		msg := raw.Message
		if msg == "" {
			msg = raw.Detail
		}
		return ErrorEvent{Message: msg}, nil
	case "":
		return nil, fmt.Errorf("missing type field")
	default:
		return UnknownEvent{Type: raw.Type}, nil
	}
}

// MarshalStreamEvent encodes an event in the wire format, without a trailing newline
func MarshalStreamEvent(ev StreamEvent) ([]byte, error) {
	var raw rawEvent
	switch e := ev.(type) {
	case LogEvent:
		raw = rawEvent{Type: EventTypeLog, Status: string(e.Status), Title: e.Title, Detail: e.Detail, InvocationID: e.InvocationID}
	case TokenEvent:
		raw = rawEvent{Type: EventTypeToken, Content: e.Content}
	case FinalResultEvent:
		raw = rawEvent{Type: EventTypeFinalResult, Message: e.Message}
	case ErrorEvent:
		raw = rawEvent{Type: EventTypeError, Message: e.Message}
	case UnknownEvent:
		raw = rawEvent{Type: e.Type}
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
	return json.Marshal(raw)
}
