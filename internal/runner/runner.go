// Package runner executes query files against one flattened record.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacoelho/jsonhash/internal/config"
	"github.com/jacoelho/jsonhash/internal/exit"
	"github.com/jacoelho/jsonhash/internal/formatter"
	"github.com/jacoelho/jsonhash/internal/formatter/stdout"
	"github.com/jacoelho/jsonhash/internal/logger"
	"github.com/jacoelho/jsonhash/internal/metrics"
	"github.com/jacoelho/jsonhash/internal/parser"
	"github.com/jacoelho/jsonhash/internal/pathinfo"
	"github.com/jacoelho/jsonhash/internal/query"
	"github.com/jacoelho/jsonhash/internal/ratelimit"
	"github.com/jacoelho/jsonhash/internal/results"
	"github.com/jacoelho/jsonhash/internal/schema"
	"github.com/jacoelho/jsonhash/internal/source"
)

// Runner executes query files.
type Runner struct {
	engine      *query.Engine
	files       []string
	rateLimiter *ratelimit.Limiter
	formatter   formatter.Formatter
	log         zerolog.Logger
}

type Option func(*Runner)

func WithFormatter(f formatter.Formatter) Option {
	return func(r *Runner) {
		r.formatter = f
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.log = logger.Component(l, "runner")
	}
}

func WithRateLimit(queriesPerSecond float64) Option {
	return func(r *Runner) {
		r.rateLimiter = ratelimit.New(queriesPerSecond)
	}
}

// LoadEngine loads the schema and the record named by cfg and indexes the
// record. The engine is shared by the runner and the server.
func LoadEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*query.Engine, error) {
	sc, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := source.FlattenFile(ctx, cfg.RecordFile, cfg.Root, cfg.FlattenOptions())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("record", cfg.RecordFile).
		Str("schema", sc.Descriptor.Name).
		Int("entries", rec.Len()).
		Bool("sparse", cfg.Sparse).
		Dur("elapsed", time.Since(start)).
		Msg("record flattened")

	analyzer := pathinfo.New(sc.Descriptor, cfg.AnalyzerOptions()...)
	return query.New(rec, analyzer, sc.Depths, query.WithLogger(log), query.WithMetrics(m)), nil
}

// New creates a Runner over engine for the query files of cfg.
func New(cfg *config.Config, engine *query.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:      engine,
		files:       cfg.QueryFiles,
		rateLimiter: ratelimit.New(cfg.RateLimit),
		formatter:   stdout.New(cfg.Format),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every query file, prints the report and returns the exit code.
func (r *Runner) Run(ctx context.Context) int {
	summary, err := r.ExecuteFiles(ctx, r.files)

	if ferr := r.formatter.Format(summary); ferr != nil {
		exit.Errorf("Error formatting results: %v\n", ferr).Print()
		return exit.CodeFailure
	}

	if err != nil {
		r.log.Error().Err(err).Msg("query execution failed")
		return exit.CodeFailure
	}
	return exit.CodeOK
}

// ExecuteFiles executes multiple query files and returns the collected results.
// The returned error is the first file failure, if any.
func (r *Runner) ExecuteFiles(ctx context.Context, files []string) (*results.Summary, error) {
	s := results.NewSummary(len(files))

	overallStart := time.Now()
	var firstError error

	for _, filename := range files {
		select {
		case <-ctx.Done():
			s.SetTotalDuration(time.Since(overallStart))
			return s, ctx.Err()
		default:
		}

		start := time.Now()
		queries, err := r.executeFile(ctx, filename)
		duration := time.Since(start)

		s.Add(results.NewFileResultBuilder(filename).
			WithQueries(queries).
			WithDuration(duration).
			WithError(err))

		r.log.Info().
			Str("file", filename).
			Int("queries", len(queries)).
			Dur("elapsed", duration).
			Err(err).
			Msg("query file executed")

		if err != nil && firstError == nil {
			firstError = err
		}
	}

	s.SetTotalDuration(time.Since(overallStart))
	return s, firstError
}

// executeFile runs every query of filename. A failing query does not stop
// the remaining ones; the first failure is reported for the file.
func (r *Runner) executeFile(ctx context.Context, filename string) ([]results.QueryResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	queries, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	out := make([]results.QueryResult, 0, len(queries))
	var firstError error

	for _, q := range queries {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return out, fmt.Errorf("rate limiting interrupted: %w", err)
		}

		res := r.ExecuteQuery(q)
		out = append(out, res)

		if res.Error != nil && firstError == nil {
			firstError = fmt.Errorf("query %q: %w", q.Name, res.Error)
		}
	}

	return out, firstError
}
