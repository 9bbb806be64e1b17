package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/config"

	"go.uber.org/zap"
)

// setupTest points the CLI at a fresh data directory and resets flag state.
func setupTest(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()

	dir := t.TempDir()
	cfg = config.DefaultConfig()
	cfg.DataDir = dir
	configPath = filepath.Join(dir, "config.yaml")
	dataDir = ""
	timeout = 0

	treeFlag, parentFlag, selectNew = "", "", false
	showIDs, exportFile = false, ""
	genNode, genCount, genModel, genTemperature, genSelect, genQuiet = "", 0, "", -1, false, false
	readPlain, readWidth = false, 80
	forceInit = false
	return dir
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}

func TestLoadConfig_DataDirFlag(t *testing.T) {
	setupTest(t)
	t.Setenv("LOOM_DATA_DIR", "/from/env")

	c, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if c.DataDir != "/from/env" {
		t.Errorf("expected env data dir, got %s", c.DataDir)
	}

	dataDir = "/from/flag"
	c, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if c.DataDir != "/from/flag" {
		t.Errorf("expected flag data dir, got %s", c.DataDir)
	}
}

func TestMatchID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}

	tests := []struct {
		arg     string
		want    string
		wantErr string
	}{
		{"xyz", "xyz", ""},
		{"abc", "abc123", ""},
		{"ab", "", "ambiguous"},
		{"q", "", "not found"},
	}
	for _, tt := range tests {
		got, err := matchID(ids, tt.arg)
		if tt.wantErr != "" {
			if err == nil || !bytes.Contains([]byte(err.Error()), []byte(tt.wantErr)) {
				t.Errorf("matchID(%q): expected error containing %q, got %v", tt.arg, tt.wantErr, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("matchID(%q) = %q, %v; want %q", tt.arg, got, err, tt.want)
		}
	}
}
