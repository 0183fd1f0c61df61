package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runVersion(t *testing.T, short bool, format string) string {
	t.Helper()

	versionFlags.short = short
	versionFlags.format = format
	t.Cleanup(func() {
		versionFlags.short = false
		versionFlags.format = "text"
	})

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	if err := versionCmd.RunE(versionCmd, nil); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	return buf.String()
}

func TestVersionCommand_Text(t *testing.T) {
	out := runVersion(t, false, "text")
	if !strings.Contains(out, "vigil "+Version) {
		t.Errorf("expected version line, got %q", out)
	}
	if !strings.Contains(out, "commit "+GitCommit) {
		t.Errorf("expected commit in output, got %q", out)
	}
}

func TestVersionCommand_Short(t *testing.T) {
	out := runVersion(t, true, "text")
	if strings.TrimSpace(out) != Version {
		t.Errorf("short output = %q, want %q", out, Version)
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	out := runVersion(t, false, "json")

	var info buildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if info.Version != Version || info.Platform == "" {
		t.Errorf("unexpected build info: %+v", info)
	}
}
