package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/relcheck/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "relcheck.log")

	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{"json format info level", &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text format debug level", &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"file output", &config.LoggingConfig{Level: "warn", Format: "json", Output: logFile}},
		{"unwritable file falls back", &config.LoggingConfig{Level: "info", Output: "/nonexistent/dir/x.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger without error")
			}
			logger.Warn("test message")
			_ = logger.Sync()
		})
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("expected log file to be written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"test message"`) {
		t.Errorf("expected json entry in log file, got %q", string(data))
	}
}

func TestNewDefaultAndNop(t *testing.T) {
	if NewDefault() == nil {
		t.Fatal("NewDefault() returned nil")
	}

	nop := NewNop()
	nop.Info("discarded")
	_ = nop.Sync()
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := FromCore(core)

	base.WithTable("Lys").Info("table")
	base.WithRelationship("OverettlinjeLys2", "FKNavinst2").Info("relationship")
	base.WithProbe("by-light").Info("probe")
	base.WithFields(map[string]interface{}{"count": 2}).Info("fields")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	expect := []map[string]interface{}{
		{"table": "Lys"},
		{"relationship": "OverettlinjeLys2", "key_field": "FKNavinst2"},
		{"probe": "by-light"},
		{"count": int64(2)},
	}
	for i, want := range expect {
		got := entries[i].ContextMap()
		for k, v := range want {
			if got[k] != v {
				t.Errorf("entry %d: expected %s=%v, got %v", i, k, v, got[k])
			}
		}
	}
}
