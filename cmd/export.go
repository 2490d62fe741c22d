package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agent-chat/internal"
	"github.com/iksnae/agent-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	sessionID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived sessions to files",
	Long: `Export sessions from the local history archive to various formats
(jsonl, md, yaml, json).

You can export every archived session or a specific one by ID. A session that
is not archived is looked up in the session cache.
Use 'agent-chat history' to see archived session IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		archive, err := openArchive()
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()

		var transcripts []*internal.Transcript
		ctx := context.Background()
		steps := []internal.ProgressStep{
			{
				Message: "Loading transcripts",
				Fn: func() error {
					transcripts, err = collectTranscripts(archive, newCacheManager(), sessionID)
					return err
				},
			},
			{
				Message: fmt.Sprintf("Writing files to %s", outputDir),
				Fn: func() error {
					if err := os.MkdirAll(outputDir, 0755); err != nil {
						return fmt.Errorf("failed to create output directory: %w", err)
					}
					for _, t := range transcripts {
						if err := writeTranscript(exporter, t, outputDir); err != nil {
							internal.LogError("Failed to export session %s: %v", t.SessionID, err)
						}
					}
					return nil
				},
			},
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", len(transcripts), outputDir))
		return nil
	},
}

// collectTranscripts returns one transcript, or every archived one when id is empty
func collectTranscripts(archive *internal.Archive, cm *internal.CacheManager, id string) ([]*internal.Transcript, error) {
	if id != "" {
		t, err := archive.Transcript(id)
		if err == nil {
			return []*internal.Transcript{t}, nil
		}
		if cached, cacheErr := cm.LoadTranscript(id); cacheErr == nil {
			return []*internal.Transcript{cached}, nil
		}
		return nil, fmt.Errorf("session not found: %s (use 'agent-chat history' to see archived sessions)", id)
	}

	sessions, err := archive.Sessions()
	if err != nil {
		return nil, err
	}
	transcripts := make([]*internal.Transcript, 0, len(sessions))
	for _, s := range sessions {
		t, err := archive.Transcript(s.SessionID)
		if err != nil {
			internal.LogWarn("Skipping session %s: %v", s.SessionID, err)
			continue
		}
		if cached, err := cm.LoadTranscript(s.SessionID); err == nil {
			t.Title = cached.Title
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, nil
}

func writeTranscript(exporter export.Exporter, t *internal.Transcript, dir string) error {
	path := filepath.Join(dir, fmt.Sprintf("session_%s.%s", t.SessionID, exporter.Extension()))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific session by ID")
}
