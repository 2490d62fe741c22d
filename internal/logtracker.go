package internal

import "strings"

// logCategories is checked in order; the first keyword hit wins
var logCategories = []struct {
	logType  LogType
	keywords []string
}{
	{LogTypeSearch, []string{"search"}},
	{LogTypePDF, []string{"pdf", "document"}},
	{LogTypeEmail, []string{"email", "mail", "draft"}},
	{LogTypeCrawl, []string{"visit", "browse", "webpage"}},
	{LogTypeMap, []string{"map", "location"}},
	{LogTypeExtract, []string{"extract"}},
}

// ClassifyLogType picks the display category for a tool title
func ClassifyLogType(title string) LogType {
	lower := strings.ToLower(title)
	for _, c := range logCategories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.logType
			}
		}
	}
	return LogTypeInfo
}

// LogTracker keeps the activity feed of tool invocations for one session.
// It is not safe for concurrent use; the Controller serializes access.
type LogTracker struct {
	logs []AgentLog
	// active is the id of the most recently opened log still running
	active string
	// byInvocation maps server invocation ids to log ids
	byInvocation map[string]string
}

// NewLogTracker creates an empty tracker
func NewLogTracker() *LogTracker {
	return &LogTracker{byInvocation: make(map[string]string)}
}

// Open records a new running log and returns its id
func (t *LogTracker) Open(title, detail, invocationID string) string {
	entry := AgentLog{
		ID:           newID(),
		Type:         ClassifyLogType(title),
		Title:        title,
		Detail:       detail,
		Status:       LogStatusRunning,
		Timestamp:    nowTimestamp(),
		InvocationID: invocationID,
	}
	t.logs = append(t.logs, entry)
	t.active = entry.ID
	if invocationID != "" {
		t.byInvocation[invocationID] = entry.ID
	}
	return entry.ID
}

// Complete moves a running log to a terminal status. Logs are matched by
// invocation id when one is given; otherwise the active log is used. An
// unknown invocation id matches nothing. It reports whether a log was updated.
func (t *LogTracker) Complete(status LogStatus, detail, invocationID string) bool {
	id := t.active
	if invocationID != "" {
		mapped, ok := t.byInvocation[invocationID]
		if !ok {
			return false
		}
		id = mapped
		delete(t.byInvocation, invocationID)
	}
	if id == "" {
		return false
	}

	idx := t.indexOf(id)
	if idx < 0 || t.logs[idx].Status != LogStatusRunning {
		return false
	}
	t.logs[idx].Status = status
	if detail != "" {
		t.logs[idx].Detail = detail
	}
	if id == t.active {
		t.active = ""
	}
	return true
}

// CloseActive closes the active log, if any, with the given status
func (t *LogTracker) CloseActive(status LogStatus, detail string) bool {
	if t.active == "" {
		return false
	}
	return t.Complete(status, detail, "")
}

// FailOpen marks every running log as failed
func (t *LogTracker) FailOpen(detail string) int {
	return t.CloseRunning(LogStatusError, detail)
}

// CloseRunning moves every running log to status
func (t *LogTracker) CloseRunning(status LogStatus, detail string) int {
	n := 0
	for i := range t.logs {
		if t.logs[i].Status == LogStatusRunning {
			t.logs[i].Status = status
			if detail != "" {
				t.logs[i].Detail = detail
			}
			n++
		}
	}
	t.active = ""
	t.byInvocation = make(map[string]string)
	return n
}

// AddInfo appends an already-finished informational entry
func (t *LogTracker) AddInfo(title, detail string, status LogStatus) {
	t.logs = append(t.logs, AgentLog{
		ID:        newID(),
		Type:      LogTypeInfo,
		Title:     title,
		Detail:    detail,
		Status:    status,
		Timestamp: nowTimestamp(),
	})
}

// HasRunning reports whether any log is still running
func (t *LogTracker) HasRunning() bool {
	for _, l := range t.logs {
		if l.Status == LogStatusRunning {
			return true
		}
	}
	return false
}

// ActiveID returns the id of the active log, or "" if none
func (t *LogTracker) ActiveID() string {
	return t.active
}

// Logs returns a copy of the feed in creation order
func (t *LogTracker) Logs() []AgentLog {
	out := make([]AgentLog, len(t.logs))
	copy(out, t.logs)
	return out
}

// Reset clears the feed
func (t *LogTracker) Reset() {
	t.logs = nil
	t.active = ""
	t.byInvocation = make(map[string]string)
}

func (t *LogTracker) indexOf(id string) int {
	for i := range t.logs {
		if t.logs[i].ID == id {
			return i
		}
	}
	return -1
}
