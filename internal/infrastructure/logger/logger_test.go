package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartplanner/core/internal/infrastructure/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: "file", Filename: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	log.WithComponent("test").WithSessionID("s-1").Infow("task created", "task_id", "t-1")
	log.Debugw("hidden at info level")
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"task created"`, `"component":"test"`, `"session_id":"s-1"`, `"task_id":"t-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, "hidden at info level") {
		t.Errorf("debug entry written at info level: %s", out)
	}
}

func TestWithErrorAndNop(t *testing.T) {
	log := NewNop()
	log.WithError(errors.New("boom")).Errorw("failed")
	log.LogHTTPRequest("GET", "/health", "test", "127.0.0.1", 200, 1.5, nil)
	log.LogSecurityEvent("invalid_token", "", "127.0.0.1", map[string]interface{}{"reason": "expired"})
}
