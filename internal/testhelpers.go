package internal

import (
	"time"
)

// CreateTestTranscript creates a transcript with one exchange and one finished log
func CreateTestTranscript(sessionID string) *Transcript {
	ts := time.Now().UTC().Format(time.RFC3339)
	return &Transcript{
		SessionID: sessionID,
		Title:     "Test Conversation",
		Messages: []Message{
			{ID: sessionID + "-0", Role: RoleUser, Content: "Find flights to Lisbon", Timestamp: ts},
			{ID: sessionID + "-1", Role: RoleAssistant, Content: "Here are three options.", Timestamp: ts},
		},
		Logs: []AgentLog{
			{ID: sessionID + "-log-0", Type: LogTypeSearch, Title: "Web search", Detail: "flights LIS", Status: LogStatusSuccess, Timestamp: ts},
		},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages and no logs
func CreateTestTranscriptWithMessages(sessionID string, messages []Message) *Transcript {
	return &Transcript{
		SessionID: sessionID,
		Messages:  messages,
	}
}

// CreateTestSession creates a session list entry
func CreateTestSession(id, title string) Session {
	now := time.Now().UTC().Format(time.RFC3339)
	return Session{
		ID:        id,
		UserID:    "test-user",
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
