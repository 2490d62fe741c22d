package internal

import (
	"errors"
	"fmt"
)

const (
	errorMarker      = "❌ "
	connectionFailed = "Connection failed: "
)

// Reducer applies stream events of one exchange to the store and log tracker.
// A Reducer is bound to the generation it was opened in; once the session
// changes, every event it receives is dropped.
type Reducer struct {
	store       *SessionStore
	logs        *LogTracker
	generation  uint64
	assistantID string
	applied     int
	dropped     int
}

// NewReducer binds a reducer to the store's current generation and the
// assistant placeholder message it writes into.
func NewReducer(store *SessionStore, logs *LogTracker, assistantID string) *Reducer {
	return &Reducer{
		store:       store,
		logs:        logs,
		generation:  store.Generation(),
		assistantID: assistantID,
	}
}

// Current reports whether the reducer still belongs to the active session
func (r *Reducer) Current() bool {
	return r.store.Generation() == r.generation
}

// Apply applies one event. It returns false if the event was dropped
// because the exchange is stale or already terminal.
func (r *Reducer) Apply(ev StreamEvent) bool {
	if !r.Current() {
		r.dropped++
		LogDebug("dropping %T from an abandoned exchange", ev)
		return false
	}
	if !r.store.State().InFlight() {
		r.dropped++
		LogDebug("dropping %T after exchange reached %s", ev, r.store.State())
		return false
	}
	ev.Accept(r)
	r.applied++
	return true
}

// Fail moves the exchange to failed after a transport error or a non-2xx
// response. Backend details are shown verbatim.
func (r *Reducer) Fail(err error) bool {
	if !r.Current() || !r.store.State().InFlight() {
		return false
	}
	r.logs.FailOpen(err.Error())

	notice := errorMarker + connectionFailed + err.Error()
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		notice = errorMarker + be.Detail
	}

	content, _ := r.store.Content(r.assistantID)
	if content == "" {
		r.store.SetContent(r.assistantID, notice)
	} else {
		r.store.AppendContent(r.assistantID, "\n"+notice)
	}
	r.store.SetState(StateFailed)
	return true
}

// Finish settles an exchange whose stream ended without a terminal event
func (r *Reducer) Finish() bool {
	if !r.Current() || !r.store.State().InFlight() {
		return false
	}
	r.logs.CloseRunning(LogStatusSuccess, "")
	r.store.SetState(StateSettled)
	return true
}

// Stats returns how many events were applied and dropped
func (r *Reducer) Stats() (applied, dropped int) {
	return r.applied, r.dropped
}

func (r *Reducer) HandleLog(ev LogEvent) {
	switch ev.Status {
	case LogStatusRunning:
		r.logs.Open(ev.Title, ev.Detail, ev.InvocationID)
	case LogStatusSuccess, LogStatusError:
		if !r.logs.Complete(ev.Status, ev.Detail, ev.InvocationID) {
			LogDebug("log completion %q matched no running log", ev.Title)
		}
	}
}

func (r *Reducer) HandleToken(ev TokenEvent) {
	r.store.AppendContent(r.assistantID, ev.Content)
}

func (r *Reducer) HandleFinalResult(ev FinalResultEvent) {
	if content, _ := r.store.Content(r.assistantID); content == "" {
		r.store.SetContent(r.assistantID, ev.Message)
	}
	r.logs.CloseRunning(LogStatusSuccess, "")
	r.store.SetState(StateSettled)
}

func (r *Reducer) HandleError(ev ErrorEvent) {
	r.logs.CloseRunning(LogStatusError, ev.Message)
	r.store.AppendContent(r.assistantID, fmt.Sprintf("\n%s%s", errorMarker, ev.Message))
	r.store.SetState(StateFailed)
}

func (r *Reducer) HandleUnknown(ev UnknownEvent) {
	LogDebug("ignoring stream event of type %q", ev.Type)
}
