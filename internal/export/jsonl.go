package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/agent-chat/internal"
)

// JSONLExporter exports transcripts in JSONL format, one record per line.
// Messages come first, then agent logs, each tagged with a "kind" field.
type JSONLExporter struct{}

// Export writes one line per message and per agent log
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"kind":    "message",
			"id":      msg.ID,
			"role":    msg.Role,
			"content": msg.Content,
		}
		if msg.Timestamp != "" {
			obj["timestamp"] = msg.Timestamp
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	for _, l := range transcript.Logs {
		obj := map[string]interface{}{
			"kind":   "log",
			"id":     l.ID,
			"type":   l.Type,
			"title":  l.Title,
			"status": l.Status,
		}
		if l.Detail != "" {
			obj["detail"] = l.Detail
		}
		if l.Timestamp != "" {
			obj["timestamp"] = l.Timestamp
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode log: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
