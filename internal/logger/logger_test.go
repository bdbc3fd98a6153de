package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want zerolog.Level
	}{
		{name: "debug", want: zerolog.DebugLevel},
		{name: "INFO", want: zerolog.InfoLevel},
		{name: " warn ", want: zerolog.WarnLevel},
		{name: "error", want: zerolog.ErrorLevel},
		{name: "off", want: zerolog.Disabled},
		{name: "bogus", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNew_StructuredOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Component(New(Config{Level: "info", Output: &buf}), "query")

	log.Debug().Msg("hidden")
	log.Info().Str("field", "claim_type").Int("matches", 2).Msg("find completed")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}

	want := map[string]any{
		"service":   "jsonhash",
		"component": "query",
		"field":     "claim_type",
		"matches":   float64(2),
		"message":   "find completed",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%s] = %v, want %v", k, entry[k], v)
		}
	}
}
