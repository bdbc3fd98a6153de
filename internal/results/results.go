package results

import (
	"encoding/json"
	"time"

	"github.com/jacoelho/jsonhash/internal/project"
)

// QueryResult is the outcome of one named query of a query file.
type QueryResult struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
	// Join holds the shared ancestors per level for "and" queries.
	Join map[string][]string `json:"join,omitempty"`
	// Matches holds the matched paths per criterion field for "or" queries.
	Matches map[string][]string `json:"matches,omitempty"`
	// Projections maps level name to field name to projected values.
	Projections map[string]map[string][]project.Projection `json:"projections,omitempty"`
	Duration    time.Duration                              `json:"-"`
	Error       error                                      `json:"-"`
}

// MatchCount returns the number of paths the query produced.
func (q QueryResult) MatchCount() int {
	n := 0
	for _, paths := range q.Join {
		n += len(paths)
	}
	for _, paths := range q.Matches {
		n += len(paths)
	}
	return n
}

func (q QueryResult) MarshalJSON() ([]byte, error) {
	type plain QueryResult
	return json.Marshal(struct {
		plain
		DurationMS int64  `json:"duration_ms"`
		Error      string `json:"error,omitempty"`
	}{
		plain:      plain(q),
		DurationMS: q.Duration.Milliseconds(),
		Error:      errString(q.Error),
	})
}

type FileResult struct {
	Filename string
	Queries  []QueryResult
	Duration time.Duration
	Error    error
}

func (f FileResult) MarshalJSON() ([]byte, error) {
	queries := f.Queries
	if queries == nil {
		queries = []QueryResult{}
	}
	return json.Marshal(struct {
		Filename   string        `json:"filename"`
		Queries    []QueryResult `json:"queries"`
		DurationMS int64         `json:"duration_ms"`
		Error      string        `json:"error,omitempty"`
	}{
		Filename:   f.Filename,
		Queries:    queries,
		DurationMS: f.Duration.Milliseconds(),
		Error:      errString(f.Error),
	})
}

type FileResultBuilder struct {
	filename string
	queries  []QueryResult
	duration time.Duration
	err      error
}

func NewFileResultBuilder(filename string) *FileResultBuilder {
	return &FileResultBuilder{
		filename: filename,
	}
}

func (b *FileResultBuilder) WithQueries(queries []QueryResult) *FileResultBuilder {
	b.queries = queries
	return b
}

func (b *FileResultBuilder) WithDuration(duration time.Duration) *FileResultBuilder {
	b.duration = duration
	return b
}

func (b *FileResultBuilder) WithError(err error) *FileResultBuilder {
	b.err = err
	return b
}

func (b *FileResultBuilder) Build() FileResult {
	return FileResult{
		Filename: b.filename,
		Queries:  b.queries,
		Duration: b.duration,
		Error:    b.err,
	}
}

type Summary struct {
	FileResults     []FileResult  `json:"files"`
	ExecutedFiles   int           `json:"executed_files"`
	ExecutedQueries int           `json:"executed_queries"`
	SucceededFiles  int           `json:"succeeded_files"`
	FailedFiles     int           `json:"failed_files"`
	TotalDuration   time.Duration `json:"-"`
}

func NewSummary(expectedFiles int) *Summary {
	return &Summary{
		FileResults: make([]FileResult, 0, expectedFiles),
	}
}

func (s *Summary) Add(builder *FileResultBuilder) {
	result := builder.Build()

	s.FileResults = append(s.FileResults, result)
	s.ExecutedFiles++
	s.ExecutedQueries += len(result.Queries)

	if result.Error != nil {
		s.FailedFiles++
	} else {
		s.SucceededFiles++
	}
}

func (s *Summary) SetTotalDuration(duration time.Duration) {
	s.TotalDuration = duration
}

func (s *Summary) QueriesPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.ExecutedQueries) / s.TotalDuration.Seconds()
}

func (s *Summary) SuccessPercentage() float64 {
	if s.ExecutedFiles == 0 {
		return 0
	}
	return (float64(s.SucceededFiles) / float64(s.ExecutedFiles)) * 100
}

func (s *Summary) FailurePercentage() float64 {
	if s.ExecutedFiles == 0 {
		return 0
	}
	return (float64(s.FailedFiles) / float64(s.ExecutedFiles)) * 100
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
