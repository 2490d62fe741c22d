package internal

// ExchangeState is the state of the current user-message-to-response cycle
type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateSending
	StateStreaming
	StateSettled
	StateFailed
)

func (s ExchangeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether an exchange is between send and a terminal state
func (s ExchangeState) InFlight() bool {
	return s == StateSending || s == StateStreaming
}

// SessionStore is the client-side state of the active conversation.
// It has no locking of its own; the Controller owns it.
type SessionStore struct {
	messages         []Message
	currentSessionID string
	sessions         []Session
	preview          *FilePreview
	state            ExchangeState
	// generation changes on every session switch so late events can be detected
	generation uint64
}

// NewSessionStore creates an empty store in the idle state
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Generation returns the current session generation
func (s *SessionStore) Generation() uint64 {
	return s.generation
}

// State returns the exchange state
func (s *SessionStore) State() ExchangeState {
	return s.state
}

// SetState sets the exchange state
func (s *SessionStore) SetState(state ExchangeState) {
	s.state = state
}

// CurrentSessionID returns the active session id, or ""
func (s *SessionStore) CurrentSessionID() string {
	return s.currentSessionID
}

// SetCurrentSessionID sets the active session id without resetting messages
func (s *SessionStore) SetCurrentSessionID(id string) {
	s.currentSessionID = id
}

// Append adds a message to the end of the conversation
func (s *SessionStore) Append(msg Message) {
	s.messages = append(s.messages, msg)
}

// AppendContent appends text to the content of the message with the given id
func (s *SessionStore) AppendContent(id, text string) bool {
	if i := s.indexOf(id); i >= 0 {
		s.messages[i].Content += text
		return true
	}
	return false
}

// SetContent replaces the content of the message with the given id
func (s *SessionStore) SetContent(id, content string) bool {
	if i := s.indexOf(id); i >= 0 {
		s.messages[i].Content = content
		return true
	}
	return false
}

// Content returns the content of the message with the given id
func (s *SessionStore) Content(id string) (string, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.messages[i].Content, true
	}
	return "", false
}

// Messages returns a copy of the conversation
func (s *SessionStore) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Sessions returns a copy of the cached session list
func (s *SessionStore) Sessions() []Session {
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// SetSessions replaces the cached session list
func (s *SessionStore) SetSessions(sessions []Session) {
	s.sessions = append([]Session(nil), sessions...)
}

// Preview returns the active file preview, or nil
func (s *SessionStore) Preview() *FilePreview {
	if s.preview == nil {
		return nil
	}
	p := *s.preview
	return &p
}

// SetPreview sets or clears the active file preview
func (s *SessionStore) SetPreview(p *FilePreview) {
	if p == nil {
		s.preview = nil
		return
	}
	cp := *p
	s.preview = &cp
}

// Switch replaces the conversation with another session's messages and
// starts a new generation. Any in-flight exchange is abandoned.
func (s *SessionStore) Switch(sessionID string, messages []Message) {
	s.generation++
	s.currentSessionID = sessionID
	s.messages = append([]Message(nil), messages...)
	s.preview = nil
	s.state = StateIdle
}

// Reset clears the conversation and starts a new generation
func (s *SessionStore) Reset() {
	s.Switch("", nil)
}

func (s *SessionStore) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is an immutable copy of the client state handed to observers
type Snapshot struct {
	State            ExchangeState
	CurrentSessionID string
	Messages         []Message
	Logs             []AgentLog
	Sessions         []Session
	Preview          *FilePreview
}

// IsLoading reports whether an exchange is in flight
func (s Snapshot) IsLoading() bool {
	return s.State.InFlight()
}

// IsAgentWorking reports whether a tool invocation is running in an in-flight exchange
func (s Snapshot) IsAgentWorking() bool {
	if !s.State.InFlight() {
		return false
	}
	for _, l := range s.Logs {
		if l.Status == LogStatusRunning {
			return true
		}
	}
	return false
}

// LastMessage returns the final message, if any
func (s Snapshot) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
