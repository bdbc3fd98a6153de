package results

import (
	"fmt"
	"strings"
)

// OutputFormat represents the output format for results.
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
)

func (f OutputFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// ParseFormat maps a format name to its OutputFormat.
func ParseFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unsupported output format %q, use text or json", name)
	}
}
