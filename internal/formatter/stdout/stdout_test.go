package stdout

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jacoelho/jsonhash/internal/project"
	"github.com/jacoelho/jsonhash/internal/results"
)

func inpatientSummary() *results.Summary {
	return &results.Summary{
		FileResults: []results.FileResult{
			{
				Filename: "queries.yaml",
				Duration: 40 * time.Millisecond,
				Queries: []results.QueryResult{
					{
						Name: "inpatient",
						Mode: "and",
						Join: map[string][]string{
							"member":     {"contents.0"},
							"claim":      {"contents.0.claim.0"},
							"claim_line": {},
						},
						Projections: map[string]map[string][]project.Projection{
							"member": {
								"member_id": {{Path: "contents.0.member_id", Value: "M1"}},
							},
							"claim": {
								"admission_date": {{Path: "contents.0.claim.0.admission_date", Value: "2020-01-01"}},
							},
						},
					},
					{
						Name:  "broken",
						Mode:  "or",
						Error: errors.New("unknown field"),
					},
				},
			},
		},
		ExecutedFiles:   1,
		ExecutedQueries: 2,
		SucceededFiles:  1,
		FailedFiles:     0,
		TotalDuration:   500 * time.Millisecond,
	}
}

func TestFormatter_Format_Text(t *testing.T) {
	tests := []struct {
		name     string
		summary  *results.Summary
		expected []string
	}{
		{
			name:    "query_report",
			summary: inpatientSummary(),
			expected: []string{
				"queries.yaml: Success (2 query(ies) in 40 ms)",
				"  inpatient [and]: 2 match(es)",
				"    member: contents.0",
				"    claim: contents.0.claim.0",
				"    claim_line: (none)",
				"    member.member_id contents.0.member_id = M1",
				"    claim.admission_date contents.0.claim.0.admission_date = 2020-01-01",
				"  broken [or]: Failed: unknown field",
				"Executed files:    1",
				"Executed queries:  2 (4.00/s)",
				"Succeeded files:   1 (100.0%)",
				"Failed files:      0 (0.0%)",
				"Duration:          500 ms",
			},
		},
		{
			name: "failed_file",
			summary: &results.Summary{
				FileResults: []results.FileResult{
					{
						Filename: "bad.yaml",
						Duration: 1 * time.Millisecond,
						Error:    errors.New("parser error"),
					},
				},
				ExecutedFiles: 1,
				FailedFiles:   1,
				TotalDuration: 1 * time.Millisecond,
			},
			expected: []string{
				"bad.yaml: Failed: parser error (0 query(ies) in 1 ms)",
				"Failed files:      1 (100.0%)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := NewWithWriter(&buf, results.FormatText)
			if err := formatter.Format(tt.summary); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			output := buf.String()
			for _, expected := range tt.expected {
				if !strings.Contains(output, expected) {
					t.Errorf("Expected output to contain %q, but got:\n%s", expected, output)
				}
			}
		})
	}
}

func TestFormatter_Format_JSON(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewWithWriter(&buf, results.FormatJSON)
	if err := formatter.Format(inpatientSummary()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded struct {
		Files []struct {
			Filename string `json:"filename"`
			Queries  []struct {
				Name  string              `json:"name"`
				Join  map[string][]string `json:"join"`
				Error string              `json:"error"`
			} `json:"queries"`
		} `json:"files"`
		ExecutedQueries int   `json:"executed_queries"`
		DurationMS      int64 `json:"duration_ms"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v\n%s", err, buf.String())
	}

	if decoded.ExecutedQueries != 2 {
		t.Errorf("executed_queries = %d, want 2", decoded.ExecutedQueries)
	}
	if decoded.DurationMS != 500 {
		t.Errorf("duration_ms = %d, want 500", decoded.DurationMS)
	}
	if len(decoded.Files) != 1 || len(decoded.Files[0].Queries) != 2 {
		t.Fatalf("files = %+v, want one file with two queries", decoded.Files)
	}
	if got := decoded.Files[0].Queries[0].Join["member"]; len(got) != 1 || got[0] != "contents.0" {
		t.Errorf("join.member = %v, want [contents.0]", got)
	}
	if got := decoded.Files[0].Queries[1].Error; got != "unknown field" {
		t.Errorf("queries[1].error = %q, want %q", got, "unknown field")
	}
}

func TestFormatter_Format_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewWithWriter(&buf, results.FormatText)
	if err := formatter.Format(); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty output for no summaries, got: %s", buf.String())
	}
}

func TestNew(t *testing.T) {
	formatter := New(results.FormatText)
	if formatter == nil {
		t.Error("New() returned nil")
	}
}
