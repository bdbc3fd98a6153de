package stdout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jacoelho/jsonhash/internal/formatter"
	"github.com/jacoelho/jsonhash/internal/node"
	"github.com/jacoelho/jsonhash/internal/results"
)

const separator = "--------------------------------------------------------------------------------"

// Formatter renders query reports to a writer, stdout by default.
type Formatter struct {
	writer io.Writer
	format results.OutputFormat
}

// New creates a new stdout formatter that outputs to stdout.
func New(format results.OutputFormat) formatter.Formatter {
	return &Formatter{
		writer: os.Stdout,
		format: format,
	}
}

// NewWithWriter creates a new formatter with a custom writer.
// This is useful for testing or redirecting output to files.
func NewWithWriter(writer io.Writer, format results.OutputFormat) formatter.Formatter {
	return &Formatter{
		writer: writer,
		format: format,
	}
}

func (f *Formatter) Format(summaries ...*results.Summary) error {
	for _, s := range summaries {
		var err error
		switch f.format {
		case results.FormatJSON:
			err = f.formatJSON(s)
		default:
			err = f.formatText(s)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) formatJSON(s *results.Summary) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*results.Summary
		DurationMS int64 `json:"duration_ms"`
	}{
		Summary:    s,
		DurationMS: s.TotalDuration.Milliseconds(),
	})
}

func (f *Formatter) formatText(s *results.Summary) error {
	for _, fileResult := range s.FileResults {
		status := "Success"
		if fileResult.Error != nil {
			status = fmt.Sprintf("Failed: %v", fileResult.Error)
		}
		_, err := fmt.Fprintf(f.writer, "%s: %s (%d query(ies) in %d ms)\n",
			fileResult.Filename, status, len(fileResult.Queries), fileResult.Duration.Milliseconds())
		if err != nil {
			return err
		}

		for _, q := range fileResult.Queries {
			if err := f.formatQuery(q); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(f.writer, separator); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(f.writer, "Executed files:    %d\n", s.ExecutedFiles); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Executed queries:  %d (%.2f/s)\n", s.ExecutedQueries, s.QueriesPerSecond()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Succeeded files:   %d (%.1f%%)\n", s.SucceededFiles, s.SuccessPercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Failed files:      %d (%.1f%%)\n", s.FailedFiles, s.FailurePercentage()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "Duration:          %d ms\n", s.TotalDuration.Milliseconds()); err != nil {
		return err
	}

	return nil
}

func (f *Formatter) formatQuery(q results.QueryResult) error {
	if q.Error != nil {
		_, err := fmt.Fprintf(f.writer, "  %s [%s]: Failed: %v\n", q.Name, q.Mode, q.Error)
		return err
	}

	if _, err := fmt.Fprintf(f.writer, "  %s [%s]: %d match(es)\n", q.Name, q.Mode, q.MatchCount()); err != nil {
		return err
	}

	if err := f.formatPaths(q.Join); err != nil {
		return err
	}
	if err := f.formatPaths(q.Matches); err != nil {
		return err
	}

	for _, level := range sortedKeys(q.Projections) {
		fields := q.Projections[level]
		for _, field := range sortedKeys(fields) {
			for _, p := range fields[field] {
				_, err := fmt.Fprintf(f.writer, "    %s.%s %s = %s\n", level, field, p.Path, node.String(p.Value))
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (f *Formatter) formatPaths(groups map[string][]string) error {
	for _, name := range sortedKeys(groups) {
		paths := groups[name]
		if len(paths) == 0 {
			if _, err := fmt.Fprintf(f.writer, "    %s: (none)\n", name); err != nil {
				return err
			}
			continue
		}
		for _, p := range paths {
			if _, err := fmt.Fprintf(f.writer, "    %s: %s\n", name, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
