package internal

import (
	"testing"
)

func TestParseStreamEvent(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    StreamEvent
		wantErr bool
	}{
		{
			name: "log running",
			line: `{"type":"log","status":"running","title":"Search","detail":"q"}`,
			want: LogEvent{Status: LogStatusRunning, Title: "Search", Detail: "q"},
		},
		{
			name: "log success with invocation id",
			line: `{"type":"log","status":"success","title":"Search","invocation_id":"call-1"}`,
			want: LogEvent{Status: LogStatusSuccess, Title: "Search", InvocationID: "call-1"},
		},
		{
			name: "token",
			line: `{"type":"token","content":"Hel"}`,
			want: TokenEvent{Content: "Hel"},
		},
		{
			name: "final result",
			line: `{"type":"final_result","message":"Done"}`,
			want: FinalResultEvent{Message: "Done"},
		},
		{
			name: "error with message",
			line: `{"type":"error","message":"quota exceeded"}`,
			want: ErrorEvent{Message: "quota exceeded"},
		},
		{
			name: "error with detail only",
			line: `{"type":"error","detail":"bad gateway"}`,
			want: ErrorEvent{Message: "bad gateway"},
		},
		{
			name: "unknown type",
			line: `{"type":"ping"}`,
			want: UnknownEvent{Type: "ping"},
		},
		{name: "missing type", line: `{"content":"x"}`, wantErr: true},
		{name: "bad log status", line: `{"type":"log","status":"done"}`, wantErr: true},
		{name: "invalid json", line: `{"type":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStreamEvent([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStreamEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStreamEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) HandleLog(LogEvent)                 { h.calls = append(h.calls, "log") }
func (h *recordingHandler) HandleToken(TokenEvent)             { h.calls = append(h.calls, "token") }
func (h *recordingHandler) HandleFinalResult(FinalResultEvent) { h.calls = append(h.calls, "final") }
func (h *recordingHandler) HandleError(ErrorEvent)             { h.calls = append(h.calls, "error") }
func (h *recordingHandler) HandleUnknown(UnknownEvent)         { h.calls = append(h.calls, "unknown") }

func TestStreamEvent_Accept(t *testing.T) {
	h := &recordingHandler{}
	for _, ev := range []StreamEvent{LogEvent{}, TokenEvent{}, FinalResultEvent{}, ErrorEvent{}, UnknownEvent{}} {
		ev.Accept(h)
	}
	want := []string{"log", "token", "final", "error", "unknown"}
	if len(h.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", h.calls, want)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, h.calls[i], want[i])
		}
	}
}

func TestMarshalStreamEvent(t *testing.T) {
	ev := LogEvent{Status: LogStatusError, Title: "Send email", Detail: "smtp down", InvocationID: "c1"}
	data, err := MarshalStreamEvent(ev)
	if err != nil {
		t.Fatalf("MarshalStreamEvent() error = %v", err)
	}
	got, err := ParseStreamEvent(data)
	if err != nil {
		t.Fatalf("ParseStreamEvent() error = %v", err)
	}
	if got != ev {
		t.Errorf("got %#v, want %#v", got, ev)
	}
}
