package testutil

import (
	"encoding/json"
	"io"
	"strings"
)

// Stream event lines in the chat stream wire format
const (
	LineLogRunning   = `{"type":"log","status":"running","title":"Web search","detail":"flights to Lisbon"}`
	LineLogSuccess   = `{"type":"log","status":"success","title":"Web search","detail":"3 results"}`
	LineFinalDone    = `{"type":"final_result","message":"Done"}`
	LineMalformed    = `{"type":"token","content":`
	LineUnknownEvent = `{"type":"heartbeat"}`
)

// TokenLine returns a token event line
func TokenLine(content string) string {
	return `{"type":"token","content":` + quote(content) + `}`
}

// ErrorLine returns an error event line
func ErrorLine(message string) string {
	return `{"type":"error","message":` + quote(message) + `}`
}

// StreamBody joins lines into a newline-terminated stream body
func StreamBody(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// ChunkedReader returns one piece of data per Read call, cutting it at the
// given sizes; whatever is left after the last size is returned in one piece.
func ChunkedReader(data string, sizes ...int) io.Reader {
	var chunks []string
	for _, n := range sizes {
		if data == "" {
			break
		}
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	if data != "" {
		chunks = append(chunks, data)
	}
	return &chunkedReader{chunks: chunks}
}

type chunkedReader struct {
	chunks []string
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

// FailingReader returns data and then err instead of io.EOF
func FailingReader(data string, err error) io.Reader {
	return io.MultiReader(strings.NewReader(data), errReader{err: err})
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
