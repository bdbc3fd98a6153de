// Package query finds flat paths by terminal field name and value, joins
// findings on their shared ancestors and projects sibling fields.
package query

import (
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/rs/zerolog"

	"github.com/jacoelho/jsonhash/internal/flat"
	"github.com/jacoelho/jsonhash/internal/logger"
	"github.com/jacoelho/jsonhash/internal/metrics"
	"github.com/jacoelho/jsonhash/internal/node"
	"github.com/jacoelho/jsonhash/internal/pathinfo"
	"github.com/jacoelho/jsonhash/internal/project"
	"github.com/jacoelho/jsonhash/internal/schema"
)

// Matches maps each criterion field to the classified paths that satisfied it.
type Matches map[string][]pathinfo.Info

// Keys returns every matched path across all fields, deduplicated and
// ordered by path.
func (m Matches) Keys() []string {
	set := make(PathSet)
	for _, infos := range m {
		for _, info := range infos {
			set.Add(info.Key)
		}
	}
	return set.Sorted()
}

// Count returns the total number of matches across all fields.
func (m Matches) Count() int {
	n := 0
	for _, infos := range m {
		n += len(infos)
	}
	return n
}

// Engine answers queries over one flat record. It is immutable after New
// and safe for concurrent use.
type Engine struct {
	rec       *flat.Record
	analyzer  *pathinfo.Analyzer
	projector *project.Projector
	fields    map[string]*roaring.Bitmap // terminal segment -> key ordinals
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger.Component(l, "query")
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New indexes rec by the terminal segment of every key.
func New(rec *flat.Record, analyzer *pathinfo.Analyzer, depths schema.DepthTable, opts ...Option) *Engine {
	e := &Engine{
		rec:      rec,
		analyzer: analyzer,
		fields:   make(map[string]*roaring.Bitmap),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.projector = project.New(rec, depths, project.OnMiss(func(field, path string) {
		e.log.Debug().Str("field", field).Str("path", path).Msg("projection miss")
		e.metrics.ObserveProjectionMiss(field)
	}))

	for i := range rec.Len() {
		key := rec.Key(i)
		last := key[strings.LastIndex(key, flat.Separator)+1:]

		bm, ok := e.fields[last]
		if !ok {
			bm = roaring.New()
			e.fields[last] = bm
		}
		bm.Add(uint32(i))
	}

	e.metrics.SetRecordEntries(rec.Len())
	e.log.Debug().Int("entries", rec.Len()).Int("fields", len(e.fields)).Msg("record indexed")

	return e
}

func (e *Engine) Record() *flat.Record {
	return e.rec
}

func (e *Engine) Analyzer() *pathinfo.Analyzer {
	return e.analyzer
}

// FindByValue returns, for every criterion field, the classified paths whose
// terminal segment is that field and whose value is one of the criterion
// values. Fields without matches map to an empty list.
func (e *Engine) FindByValue(c Criteria) (Matches, error) {
	start := time.Now()
	matches, err := e.find(c)
	e.metrics.ObserveQuery("find", time.Since(start), matches.Count(), err)
	return matches, err
}

func (e *Engine) find(c Criteria) (Matches, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	matches := make(Matches, len(c))
	for _, field := range c.Fields() {
		wanted := make(map[string]struct{}, len(c[field]))
		for _, v := range c[field] {
			wanted[v] = struct{}{}
		}

		infos := []pathinfo.Info{}
		if bm, ok := e.fields[field]; ok {
			it := bm.Iterator()
			for it.HasNext() {
				key := e.rec.Key(int(it.Next()))
				v, _ := e.rec.Get(key)
				if _, hit := wanted[node.String(v.Scalar)]; !hit {
					continue
				}

				info, err := e.analyzer.Classify(key)
				if err != nil {
					return nil, err
				}
				infos = append(infos, info)
			}
		}

		matches[field] = infos
		e.log.Debug().Str("field", field).Int("values", len(wanted)).Int("matches", len(infos)).Msg("find")
	}

	return matches, nil
}

// Project resolves field relative to each of paths.
func (e *Engine) Project(paths []string, field string) ([]project.Projection, error) {
	start := time.Now()
	out, err := e.projector.Project(paths, field)
	e.metrics.ObserveQuery("project", time.Since(start), len(out), err)
	return out, err
}

// ProjectMany resolves several fields relative to each of paths.
func (e *Engine) ProjectMany(paths []string, fields []string) (map[string][]project.Projection, error) {
	return e.projector.ProjectMany(paths, fields)
}
