package internal

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Observer is notified with a fresh snapshot after every state change
type Observer interface {
	Update(Snapshot)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Snapshot)

// Update calls f(s)
func (f ObserverFunc) Update(s Snapshot) { f(s) }

// Controller runs chat exchanges against a Backend and owns the client state.
// All mutation happens under one mutex; observers are called outside it.
type Controller struct {
	backend     Backend
	userID      string
	baseURL     string
	autoExecute bool

	mu    sync.Mutex
	store *SessionStore
	logs  *LogTracker

	observers []Observer
	cache     *CacheManager
	archive   *Archive
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithObserver registers an observer
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithCache writes session lists and transcripts to the local cache
func WithCache(cm *CacheManager) ControllerOption {
	return func(c *Controller) { c.cache = cm }
}

// WithArchive records finished exchanges in the archive
func WithArchive(a *Archive) ControllerOption {
	return func(c *Controller) { c.archive = a }
}

// NewController creates a controller for one user
func NewController(backend Backend, cfg Config, opts ...ControllerOption) *Controller {
	c := &Controller{
		backend:     backend,
		userID:      cfg.UserID,
		baseURL:     cfg.BaseURL,
		autoExecute: cfg.AutoExecute,
		store:       NewSessionStore(),
		logs:        NewLogTracker(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:            c.store.State(),
		CurrentSessionID: c.store.CurrentSessionID(),
		Messages:         c.store.Messages(),
		Logs:             c.logs.Logs(),
		Sessions:         c.store.Sessions(),
		Preview:          c.store.Preview(),
	}
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, o := range c.observers {
		o.Update(snap)
	}
}

// exchange is the bookkeeping of one in-flight Send
type exchange struct {
	generation  uint64
	sessionID   string
	userMsg     Message
	assistantID string
	logStart    int
	reducer     *Reducer
}

// Send runs one exchange: it makes sure a session exists, appends the user
// message and an assistant placeholder, then streams the response into the
// placeholder. It returns ErrEmptyMessage or ErrBusy without touching state
// when the message is blank or an exchange is already running. Stream and
// backend failures end up in the conversation, not in the returned error.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.store.State().InFlight() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.store.SetState(StateSending)
	ex := &exchange{
		generation: c.store.Generation(),
		sessionID:  c.store.CurrentSessionID(),
	}
	c.mu.Unlock()
	c.notify()

	defer c.release(ctx, ex)

	if ex.sessionID == "" {
		if !c.ensureSession(ctx, ex) {
			return nil
		}
	}

	c.mu.Lock()
	if c.store.Generation() != ex.generation {
		c.mu.Unlock()
		return nil
	}
	ex.userMsg = Message{ID: newID(), Role: RoleUser, Content: text, Timestamp: nowTimestamp()}
	placeholder := Message{ID: newID(), Role: RoleAssistant, Timestamp: nowTimestamp()}
	ex.assistantID = placeholder.ID
	c.store.Append(ex.userMsg)
	c.store.Append(placeholder)
	ex.logStart = len(c.logs.Logs())
	ex.reducer = NewReducer(c.store, c.logs, placeholder.ID)
	c.mu.Unlock()
	c.notify()

	body, err := c.backend.OpenStream(ctx, ChatRequest{
		Message:     text,
		UserID:      c.userID,
		AutoExecute: c.autoExecute,
		SessionID:   ex.sessionID,
	})
	if err != nil {
		LogWarn("Failed to open chat stream: %v", err)
		c.mu.Lock()
		ex.reducer.Fail(err)
		c.mu.Unlock()
		c.notify()
		return nil
	}
	defer body.Close()

	c.mu.Lock()
	if ex.reducer.Current() {
		c.store.SetState(StateStreaming)
	}
	c.mu.Unlock()
	c.notify()

	c.consume(ex.reducer, body)
	return nil
}

// ensureSession creates a session when none is active. It reports false if
// the exchange was abandoned while waiting.
func (c *Controller) ensureSession(ctx context.Context, ex *exchange) bool {
	id, err := c.backend.CreateSession(ctx, c.userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.Generation() != ex.generation {
		return false
	}
	if err != nil {
		LogWarn("Failed to create session: %v", err)
		c.logs.AddInfo("Session creation failed", err.Error(), LogStatusError)
		return true
	}
	c.store.SetCurrentSessionID(id)
	ex.sessionID = id
	return true
}

// consume reads the stream until it ends, fails, reaches a terminal event
// or the exchange is abandoned
func (c *Controller) consume(r *Reducer, body io.Reader) {
	dec := NewEventDecoder(body)
	for {
		ev, err := dec.Next()

		c.mu.Lock()
		switch {
		case errors.Is(err, io.EOF):
			r.Finish()
		case err != nil:
			LogWarn("Chat stream failed: %v", err)
			r.Fail(err)
		default:
			r.Apply(ev)
		}
		stop := err != nil || !r.Current() || !c.store.State().InFlight()
		c.mu.Unlock()
		c.notify()

		if stop {
			if applied, dropped := r.Stats(); dropped > 0 {
				LogDebug("Stream closed: %d event(s) applied, %d dropped", applied, dropped)
			}
			return
		}
	}
}

// release runs once per Send on every exit path. It forces a terminal state
// if the exchange is somehow still in flight, archives the exchange and
// refreshes the session list.
func (c *Controller) release(ctx context.Context, ex *exchange) {
	c.mu.Lock()
	current := c.store.Generation() == ex.generation
	if current && c.store.State().InFlight() {
		if ex.reducer != nil {
			ex.reducer.Fail(errors.New("exchange interrupted"))
		} else {
			c.store.SetState(StateFailed)
		}
	}

	var rec *ExchangeRecord
	if current && ex.reducer != nil && ex.sessionID != "" {
		assistant := Message{ID: ex.assistantID, Role: RoleAssistant}
		for _, m := range c.store.Messages() {
			if m.ID == ex.assistantID {
				assistant = m
			}
		}
		logs := c.logs.Logs()
		if ex.logStart <= len(logs) {
			logs = logs[ex.logStart:]
		}
		rec = &ExchangeRecord{
			SessionID: ex.sessionID,
			User:      ex.userMsg,
			Assistant: assistant,
			Logs:      logs,
			State:     c.store.State(),
		}
	}
	c.mu.Unlock()
	c.notify()

	if rec != nil && c.archive != nil {
		if err := c.archive.RecordExchange(*rec); err != nil {
			LogWarn("Failed to archive exchange: %v", err)
		}
	}

	if ctx.Err() != nil {
		ctx = context.Background()
	}
	_ = c.RefreshSessions(ctx)

	if current && c.cache != nil && ex.sessionID != "" {
		c.saveTranscript(ex.sessionID)
	}
}

// Ask runs a one-shot exchange against the non-streaming endpoint
func (c *Controller) Ask(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.store.State().InFlight() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.store.SetState(StateSending)
	gen := c.store.Generation()
	c.store.Append(Message{ID: newID(), Role: RoleUser, Content: text, Timestamp: nowTimestamp()})
	c.mu.Unlock()
	c.notify()

	resp, err := c.backend.Chat(ctx, ChatRequest{
		Message:     text,
		UserID:      c.userID,
		AutoExecute: c.autoExecute,
	})

	c.mu.Lock()
	if c.store.Generation() == gen {
		reply := Message{ID: newID(), Role: RoleAssistant, Timestamp: nowTimestamp()}
		if err != nil {
			LogWarn("One-shot chat failed: %v", err)
			reply.Content = errorMarker + oneShotFailure(err)
			c.store.SetState(StateFailed)
		} else {
			reply.Content = resp.Text()
			c.store.SetState(StateSettled)
		}
		c.store.Append(reply)
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

func oneShotFailure(err error) string {
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return connectionFailed + err.Error()
}

// LoadSession replaces the conversation with a stored session's history.
// On failure the current conversation is kept and the error is added to
// the activity feed.
func (c *Controller) LoadSession(ctx context.Context, sessionID string) error {
	msgs, err := c.backend.LoadMessages(ctx, sessionID)
	if err != nil {
		LogWarn("Failed to load session %s: %v", sessionID, err)
		c.mu.Lock()
		c.logs.AddInfo("Failed to load session", err.Error(), LogStatusError)
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.mu.Lock()
	c.store.Switch(sessionID, msgs)
	c.logs.Reset()
	c.mu.Unlock()
	c.notify()

	if c.cache != nil {
		c.saveTranscript(sessionID)
	}
	return nil
}

// StartNewChat clears the conversation. The next Send creates a session.
func (c *Controller) StartNewChat() {
	c.mu.Lock()
	c.store.Reset()
	c.logs.Reset()
	c.mu.Unlock()
	c.notify()
}

// DeleteSession deletes a session; if it is the active one the local state
// is reset as well
func (c *Controller) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.backend.DeleteSession(ctx, sessionID); err != nil {
		LogWarn("Failed to delete session %s: %v", sessionID, err)
		c.mu.Lock()
		c.logs.AddInfo("Failed to delete session", err.Error(), LogStatusError)
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.mu.Lock()
	if c.store.CurrentSessionID() == sessionID {
		c.store.Reset()
		c.logs.Reset()
	}
	c.mu.Unlock()
	c.notify()

	if c.cache != nil {
		if err := c.cache.RemoveTranscript(sessionID); err != nil {
			LogWarn("Failed to remove cached transcript: %v", err)
		}
	}
	if c.archive != nil {
		if err := c.archive.DeleteSession(sessionID); err != nil {
			LogWarn("Failed to remove archived session: %v", err)
		}
	}
	_ = c.RefreshSessions(ctx)
	return nil
}

// RefreshSessions reloads the session list. On failure the cached list is
// kept and the error is added to the activity feed.
func (c *Controller) RefreshSessions(ctx context.Context) error {
	sessions, err := c.backend.ListSessions(ctx, c.userID)
	if err != nil {
		LogWarn("Failed to list sessions: %v", err)
		c.mu.Lock()
		c.logs.AddInfo("Failed to refresh sessions", err.Error(), LogStatusError)
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.mu.Lock()
	c.store.SetSessions(sessions)
	c.mu.Unlock()
	c.notify()

	if c.cache != nil {
		if err := c.cache.SaveSessions(c.baseURL, c.userID, sessions); err != nil {
			LogWarn("Failed to save session cache: %v", err)
		}
	}
	return nil
}

// SetPreview shows an artifact in the preview pane
func (c *Controller) SetPreview(p FilePreview) {
	c.mu.Lock()
	c.store.SetPreview(&p)
	c.mu.Unlock()
	c.notify()
}

// ClearPreview hides the preview pane
func (c *Controller) ClearPreview() {
	c.mu.Lock()
	c.store.SetPreview(nil)
	c.mu.Unlock()
	c.notify()
}

// Transcript returns the current session's messages and activity feed
func (c *Controller) Transcript() *Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &Transcript{
		SessionID: c.store.CurrentSessionID(),
		Messages:  c.store.Messages(),
		Logs:      c.logs.Logs(),
	}
	for _, s := range c.store.sessions {
		if s.ID == t.SessionID {
			t.Title = s.Title
		}
	}
	return t
}

func (c *Controller) saveTranscript(sessionID string) {
	t := c.Transcript()
	if t.SessionID != sessionID {
		return
	}
	if err := c.cache.SaveTranscript(t); err != nil {
		LogWarn("Failed to cache transcript: %v", err)
	}
}
