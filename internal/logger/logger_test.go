package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Info("habit checked in", "habit", "h1", "streak", 3)
	Debug("debug output is filtered at info level")

	data, err := os.ReadFile(LogPath(configDir))
	if err != nil {
		t.Fatalf("log file was not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "habit checked in") {
		t.Errorf("log file missing info message: %q", out)
	}
	if strings.Contains(out, "debug output is filtered") {
		t.Errorf("debug message written at info level: %q", out)
	}
}

func TestInitDebugMode(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: true, ConfigDir: configDir}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}

	Debug("Test debug message in debug mode")

	data, err := os.ReadFile(LogPath(configDir))
	if err != nil {
		t.Fatalf("log file was not written: %v", err)
	}
	if !strings.Contains(string(data), "Test debug message in debug mode") {
		t.Error("debug message missing in debug mode")
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// These should not panic when Logger is nil
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestLogPath(t *testing.T) {
	got := LogPath("/tmp/streakr")
	want := filepath.Join("/tmp/streakr", "logs", "streakr.log")
	if got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}
