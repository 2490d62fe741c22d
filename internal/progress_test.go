package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		fn      func() error
		wantErr bool
	}{
		{"successful function", func() error { return nil }, false},
		{"function with error", func() error { return errors.New("test error") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, "Testing", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_NotTerminalRunsDirectly(t *testing.T) {
	var buf bytes.Buffer
	ran := false
	if err := showProgress(context.Background(), &buf, "Loading", func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("showProgress() error = %v", err)
	}
	if !ran {
		t.Error("fn was not called")
	}
	if buf.Len() != 0 {
		t.Errorf("no spinner should be drawn on a non-terminal, got %q", buf.String())
	}
}

func TestShowProgressWithSteps(t *testing.T) {
	var order []string
	steps := []ProgressStep{
		{Message: "first", Fn: func() error { order = append(order, "first"); return nil }},
		{Message: "second", Fn: func() error { return errors.New("disk full") }},
		{Message: "third", Fn: func() error { order = append(order, "third"); return nil }},
	}

	err := ShowProgressWithSteps(context.Background(), steps)
	if err == nil || !strings.Contains(err.Error(), "second: disk full") {
		t.Fatalf("ShowProgressWithSteps() error = %v", err)
	}
	if strings.Join(order, ",") != "first" {
		t.Errorf("steps run = %v, want only first", order)
	}
}

func TestPrintFunctions(t *testing.T) {
	PrintSuccess("test success")
	PrintError("test error")
	PrintInfo("test info")
	PrintWarning("test warning")
}
