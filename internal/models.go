package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one chat message in the active conversation
type Message struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Session represents a persisted conversation thread as reported by the backend
type Session struct {
	ID           string `json:"id" yaml:"id"`
	UserID       string `json:"user_id" yaml:"user_id"`
	Title        string `json:"title" yaml:"title,omitempty"`
	CreatedAt    string `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at" yaml:"updated_at,omitempty"`
	MessageCount *int   `json:"message_count,omitempty" yaml:"message_count,omitempty"`
	Preview      string `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// GetUpdatedAt returns the last update time, falling back to the creation time
func (s Session) GetUpdatedAt() time.Time {
	if t, err := time.Parse(time.RFC3339, s.UpdatedAt); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s.CreatedAt); err == nil {
		return t
	}
	return time.Time{}
}

// LogType is the display category of an agent log
type LogType string

const (
	LogTypeSearch  LogType = "search"
	LogTypeExtract LogType = "extract"
	LogTypeCrawl   LogType = "crawl"
	LogTypeMap     LogType = "map"
	LogTypeEmail   LogType = "email"
	LogTypePDF     LogType = "pdf"
	LogTypeInfo    LogType = "info"
)

// LogStatus is the lifecycle state of an agent log
type LogStatus string

const (
	LogStatusRunning LogStatus = "running"
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
)

// AgentLog represents one observed tool invocation
type AgentLog struct {
	ID           string    `json:"id" yaml:"id"`
	Type         LogType   `json:"type" yaml:"type"`
	Title        string    `json:"title" yaml:"title"`
	Detail       string    `json:"detail" yaml:"detail,omitempty"`
	Status       LogStatus `json:"status" yaml:"status"`
	Timestamp    string    `json:"timestamp" yaml:"timestamp"`
	InvocationID string    `json:"invocation_id,omitempty" yaml:"invocation_id,omitempty"`
	Data         any       `json:"data,omitempty" yaml:"data,omitempty"`
}

// PreviewType is the kind of artifact shown in the preview pane
type PreviewType string

const (
	PreviewPDF   PreviewType = "pdf"
	PreviewImage PreviewType = "image"
	PreviewText  PreviewType = "text"
	PreviewJSON  PreviewType = "json"
)

// FilePreview is an artifact reported by the backend
type FilePreview struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    PreviewType `json:"type"`
	URL     string      `json:"url,omitempty"`
	Content string      `json:"content,omitempty"`
}

// Transcript is a session's messages together with its activity feed
type Transcript struct {
	SessionID string     `json:"session_id" yaml:"session_id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Messages  []Message  `json:"messages" yaml:"messages"`
	Logs      []AgentLog `json:"logs,omitempty" yaml:"logs,omitempty"`
}

func newID() string {
	return uuid.NewString()
}

func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// backfillEpoch anchors synthesized timestamps so repeated loads agree
var backfillEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// BackfillMessages fills in missing ids and timestamps deterministically
func BackfillMessages(sessionID string, messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, msg := range messages {
		if msg.ID == "" {
			msg.ID = fmt.Sprintf("%s-%d", sessionID, i)
		}
		if msg.Timestamp == "" {
			msg.Timestamp = backfillEpoch.Add(time.Duration(i) * time.Second).Format(time.RFC3339)
		}
		if msg.Role != RoleUser {
			msg.Role = RoleAssistant
		}
		out[i] = msg
	}
	return out
}
