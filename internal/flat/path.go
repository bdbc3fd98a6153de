package flat

import (
	"cmp"
	"slices"
	"strings"
)

// Separator joins path segments in the external string form of a Path.
const Separator = "."

// Path is an ordered sequence of segments. Purely numeric segments are array
// indices; every other segment is a field name.
type Path []string

// ParsePath splits the external string form of a path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return strings.Split(s, Separator)
}

func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Last returns the final segment, or "" for the empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Truncate returns a copy of the first n segments. Paths shorter than n are
// returned whole.
func (p Path) Truncate(n int) Path {
	n = max(0, min(n, len(p)))
	return slices.Clone(p[:n])
}

// Append returns a new path with segs added after p.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// IsAncestorOf reports whether p is a strict leading prefix of other.
func (p Path) IsAncestorOf(other Path) bool {
	return len(p) < len(other) && slices.Equal(p, other[:len(p)])
}

// EndsWithIndex reports whether the final segment is an array index.
func (p Path) EndsWithIndex() bool {
	return len(p) > 0 && IsIndex(p[len(p)-1])
}

// IsIndex reports whether a segment is an array index.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for i := range len(segment) {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

// Compare orders two path strings segment by segment, comparing array
// indices numerically so that claim.2 sorts before claim.10.
func Compare(a, b string) int {
	return ComparePaths(ParsePath(a), ParsePath(b))
}

func ComparePaths(a, b Path) int {
	for i := range min(len(a), len(b)) {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareSegment(a, b string) int {
	if IsIndex(a) && IsIndex(b) {
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}
