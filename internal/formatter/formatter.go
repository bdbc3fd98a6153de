package formatter

import (
	"github.com/jacoelho/jsonhash/internal/results"
)

// Formatter defines the interface for different output formats.
// Implementations are responsible for determining the output device (stdout, file, etc.).
type Formatter interface {
	// Format renders every summary in order.
	Format(summaries ...*results.Summary) error
}
