package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/jsonhash/internal/exit"
	"github.com/jacoelho/jsonhash/internal/flatten"
	"github.com/jacoelho/jsonhash/internal/logger"
	"github.com/jacoelho/jsonhash/internal/pathinfo"
	"github.com/jacoelho/jsonhash/internal/results"
)

var (
	ErrNoArguments  = errors.New("no arguments provided")
	ErrNoRecordFile = errors.New("no record file specified")
	ErrNoSchemaFile = errors.New("no schema file specified, use --schema")
	ErrNoQueryFiles = errors.New("no query files specified and --serve not set")
)

// Config represents the complete configuration for the jsonhash tool.
type Config struct {
	// Inputs
	RecordFile string
	QueryFiles []string
	SchemaFile string
	Root       string // JSONPath selecting the record inside RecordFile

	// Flattening and classification
	Sparse bool
	Strict bool

	// Execution and output
	Format    results.OutputFormat
	RateLimit float64 // Queries per second (0 = unlimited)
	ServeAddr string

	// Logging
	LogLevel  string
	LogPretty bool
}

// FlattenOptions returns the flattening options selected on the command line.
func (c *Config) FlattenOptions() flatten.Options {
	return flatten.Options{Sparse: c.Sparse}
}

// AnalyzerOptions returns the path analyzer options selected on the command line.
func (c *Config) AnalyzerOptions() []pathinfo.Option {
	if c.Strict {
		return []pathinfo.Option{pathinfo.Strict()}
	}
	return nil
}

// LoggerConfig returns the logger configuration selected on the command line.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Pretty: c.LogPretty,
	}
}

// Serving reports whether the HTTP server was requested.
func (c *Config) Serving() bool {
	return c.ServeAddr != ""
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.RecordFile == "" {
		return ErrNoRecordFile
	}
	if c.SchemaFile == "" {
		return ErrNoSchemaFile
	}
	if len(c.QueryFiles) == 0 && !c.Serving() {
		return ErrNoQueryFiles
	}

	files := append([]string{c.RecordFile, c.SchemaFile}, c.QueryFiles...)
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("file %s not found: %w", file, err)
		}
	}

	return nil
}

// formatFlag implements flag.Value for the --format flag.
type formatFlag struct {
	format *results.OutputFormat
}

func (f formatFlag) String() string {
	if f.format == nil {
		return results.FormatText.String()
	}
	return f.format.String()
}

func (f formatFlag) Set(value string) error {
	format, err := results.ParseFormat(value)
	if err != nil {
		return err
	}
	*f.format = format
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// Flags may appear before, between or after positional arguments.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	config := &Config{}

	fs.StringVar(&config.SchemaFile, "schema", "", "Path to the YAML schema file (descriptor and depth table)")
	fs.StringVar(&config.Root, "root", "", "JSONPath selecting the record inside the input document")
	fs.BoolVar(&config.Sparse, "sparse", false, "Omit null values and empty containers from the flat record")
	fs.BoolVar(&config.Strict, "strict", false, "Reject paths that do not follow the declared hierarchy")
	fs.Var(formatFlag{format: &config.Format}, "format", "Output format: text or json")
	fs.Float64Var(&config.RateLimit, "rate-limit", 0, "Rate limit in queries per second (0 for unlimited)")
	fs.StringVar(&config.ServeAddr, "serve", "", "Serve queries over HTTP on the given address")
	fs.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.BoolVar(&config.LogPretty, "log-pretty", false, "Human readable console logs")

	positional, err := parseInterspersed(fs, args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	if len(positional) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoRecordFile, Usage())
	}
	config.RecordFile = positional[0]
	config.QueryFiles = positional[1:]

	if err := config.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// parseInterspersed collects positional arguments while letting flags
// follow them; "--" ends flag parsing.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		// fs.Parse consumed a "--" terminator when everything left is positional.
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `jsonhash - query nested records through their flattened paths

Usage: jsonhash [options] --schema FILE <record.json> [query.yaml...]

Options:
  --schema FILE           YAML schema: hierarchy descriptor and field depth table (required)
  --root JSONPATH         JSONPath selecting the record inside the input document
  --sparse                Omit null values and empty containers from the flat record
  --strict                Reject paths that do not follow the declared hierarchy
  --format FORMAT         Output format: text or json (default: text)
  --rate-limit N          Rate limit in queries per second (0 for unlimited)
  --serve ADDR            Serve find, join and project over HTTP instead of running query files
  --log-level LEVEL       Log level: debug, info, warn or error (default: info)
  --log-pretty            Human readable console logs
  -h, --help              Show this help message

Examples:
  jsonhash --schema claims.yaml member.json queries.yaml        # Run a query file
  jsonhash --schema claims.yaml member.json q1.yaml q2.yaml     # Run several query files in sequence
  jsonhash --schema claims.yaml --root '$.data' export.json q.yaml
  jsonhash --schema claims.yaml member.json q.yaml --format json
  jsonhash --schema claims.yaml --serve :8080 member.json       # Serve the record over HTTP`
}
