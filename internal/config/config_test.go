package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jacoelho/jsonhash/internal/exit"
	"github.com/jacoelho/jsonhash/internal/results"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	tempDir := t.TempDir()
	record := writeFile(t, tempDir, "record.json", `{"contents": []}`)
	schemaFile := writeFile(t, tempDir, "schema.yaml", "preset: claims/v1\n")
	query1 := writeFile(t, tempDir, "q1.yaml", "- name: a\n  criteria: {a: [x]}\n")
	query2 := writeFile(t, tempDir, "q2.yaml", "- name: b\n  criteria: {b: [y]}\n")

	tests := []struct {
		name string
		args []string
		want *Config
	}{
		{
			name: "single_query_file",
			args: []string{"jsonhash", "--schema", schemaFile, record, query1},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1},
				SchemaFile: schemaFile,
				LogLevel:   "info",
			},
		},
		{
			name: "multiple_query_files",
			args: []string{"jsonhash", "--schema", schemaFile, record, query1, query2},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1, query2},
				SchemaFile: schemaFile,
				LogLevel:   "info",
			},
		},
		{
			name: "flags_after_positional",
			args: []string{"jsonhash", record, query1, "--schema", schemaFile, "--sparse", "--format", "json"},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1},
				SchemaFile: schemaFile,
				Sparse:     true,
				Format:     results.FormatJSON,
				LogLevel:   "info",
			},
		},
		{
			name: "flags_between_positional",
			args: []string{"jsonhash", record, "--strict", query1, "--rate-limit", "5", "--schema", schemaFile},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1},
				SchemaFile: schemaFile,
				Strict:     true,
				RateLimit:  5,
				LogLevel:   "info",
			},
		},
		{
			name: "serve_without_queries",
			args: []string{"jsonhash", "--schema", schemaFile, "--serve", ":8080", "--log-level", "debug", "--log-pretty", record},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{},
				SchemaFile: schemaFile,
				ServeAddr:  ":8080",
				LogLevel:   "debug",
				LogPretty:  true,
			},
		},
		{
			name: "root_selector",
			args: []string{"jsonhash", "--schema", schemaFile, "--root", "$.data", record, query1},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1},
				SchemaFile: schemaFile,
				Root:       "$.data",
				LogLevel:   "info",
			},
		},
		{
			name: "double_dash_terminates_flags",
			args: []string{"jsonhash", "--schema", schemaFile, "--", record, query1},
			want: &Config{
				RecordFile: record,
				QueryFiles: []string{query1},
				SchemaFile: schemaFile,
				LogLevel:   "info",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, result := Parse(tt.args)
			if result != nil {
				t.Fatalf("Parse() result = %q (code %d), want nil", result.Message, result.ExitCode)
			}
			if len(got.QueryFiles) == 0 {
				got.QueryFiles = []string{}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tempDir := t.TempDir()
	record := writeFile(t, tempDir, "record.json", `{}`)
	schemaFile := writeFile(t, tempDir, "schema.yaml", "preset: claims/v1\n")
	query := writeFile(t, tempDir, "q.yaml", "- name: a\n  criteria: {a: [x]}\n")
	missing := filepath.Join(tempDir, "missing.json")

	tests := []struct {
		name        string
		args        []string
		wantMessage string
	}{
		{
			name:        "no_arguments",
			args:        nil,
			wantMessage: ErrNoArguments.Error(),
		},
		{
			name:        "no_record",
			args:        []string{"jsonhash", "--schema", schemaFile},
			wantMessage: ErrNoRecordFile.Error(),
		},
		{
			name:        "no_schema",
			args:        []string{"jsonhash", record, query},
			wantMessage: ErrNoSchemaFile.Error(),
		},
		{
			name:        "no_queries_without_serve",
			args:        []string{"jsonhash", "--schema", schemaFile, record},
			wantMessage: ErrNoQueryFiles.Error(),
		},
		{
			name:        "missing_record_file",
			args:        []string{"jsonhash", "--schema", schemaFile, missing, query},
			wantMessage: "not found",
		},
		{
			name:        "unknown_format",
			args:        []string{"jsonhash", "--schema", schemaFile, "--format", "xml", record, query},
			wantMessage: "unsupported output format",
		},
		{
			name:        "unknown_flag",
			args:        []string{"jsonhash", "--debug", record, query},
			wantMessage: "failed to parse arguments",
		},
		{
			name:        "bad_rate_limit",
			args:        []string{"jsonhash", "--rate-limit", "fast", record, query},
			wantMessage: "failed to parse arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, result := Parse(tt.args)
			if cfg != nil {
				t.Fatalf("Parse() config = %+v, want nil", cfg)
			}
			if result == nil {
				t.Fatal("Parse() result = nil, want exit result")
			}
			if result.ExitCode != exit.CodeUsage {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, exit.CodeUsage)
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want it to contain %q", result.Message, tt.wantMessage)
			}
			if !strings.Contains(result.Message, "Usage:") {
				t.Errorf("Message = %q, want usage text", result.Message)
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		t.Run(arg, func(t *testing.T) {
			cfg, result := Parse([]string{"jsonhash", arg})
			if cfg != nil {
				t.Fatalf("Parse() config = %+v, want nil", cfg)
			}
			if result == nil || result.ExitCode != exit.CodeOK {
				t.Fatalf("Parse() result = %+v, want success", result)
			}
			if result.Message != Usage() {
				t.Errorf("Message = %q, want usage", result.Message)
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{Sparse: true, Strict: true, LogLevel: "debug", LogPretty: true}

	if !cfg.FlattenOptions().Sparse {
		t.Error("FlattenOptions().Sparse = false, want true")
	}
	if got := len(cfg.AnalyzerOptions()); got != 1 {
		t.Errorf("len(AnalyzerOptions()) = %d, want 1", got)
	}
	if lc := cfg.LoggerConfig(); lc.Level != "debug" || !lc.Pretty {
		t.Errorf("LoggerConfig() = %+v, want debug pretty", lc)
	}
	if cfg.Serving() {
		t.Error("Serving() = true, want false")
	}

	loose := &Config{}
	if got := loose.AnalyzerOptions(); got != nil {
		t.Errorf("AnalyzerOptions() = %v, want nil", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	err := (&Config{}).Validate()
	if !errors.Is(err, ErrNoRecordFile) {
		t.Errorf("Validate() error = %v, want %v", err, ErrNoRecordFile)
	}
}
