package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	logger := Component("sync")
	logger.Info().Msg("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}

	if entry["cmp"] != "sync" {
		t.Errorf("Component() cmp = %v, want %q", entry["cmp"], "sync")
	}

	if entry["message"] != "test message" {
		t.Errorf("Component() message = %v, want %q", entry["message"], "test message")
	}
}

func TestForChannel(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	logger := ForChannel("adapter", "email")
	logger.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v", err)
	}

	if entry["cmp"] != "adapter" || entry["channel"] != "email" {
		t.Errorf("ForChannel() fields = %v", entry)
	}
}
