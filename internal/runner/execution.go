package runner

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jacoelho/jsonhash/internal/parser"
	"github.com/jacoelho/jsonhash/internal/project"
	"github.com/jacoelho/jsonhash/internal/query"
	"github.com/jacoelho/jsonhash/internal/results"
)

// ExecuteQuery runs one query. "and" queries report the ancestors shared by
// all criteria and project each level's fields from that level's
// ancestors. "or" queries report every match and project from the matched
// paths.
func (r *Runner) ExecuteQuery(q parser.Query) results.QueryResult {
	start := time.Now()
	res := results.QueryResult{
		Name: q.Name,
		Mode: string(q.Mode),
	}

	var err error
	switch q.Mode {
	case parser.ModeOr:
		err = r.executeOr(q, &res)
	default:
		err = r.executeAnd(q, &res)
	}

	res.Duration = time.Since(start)
	res.Error = err

	r.log.Debug().
		Str("query", q.Name).
		Str("mode", res.Mode).
		Int("matches", res.MatchCount()).
		Dur("elapsed", res.Duration).
		Err(err).
		Msg("query executed")

	return res
}

func (r *Runner) executeAnd(q parser.Query, res *results.QueryResult) error {
	if err := r.checkLevels(q); err != nil {
		return err
	}

	join, err := r.engine.JoinAnd(query.Criteria(q.Criteria))
	if err != nil {
		return err
	}

	res.Join = make(map[string][]string, len(join))
	for level, set := range join {
		res.Join[level] = set.Sorted()
	}

	var errs []error
	for _, level := range sortedLevels(q.Project) {
		projections, err := r.engine.ProjectMany(join.Level(level).Sorted(), q.Project[level])
		setProjections(res, level, projections)
		if err != nil {
			errs = append(errs, fmt.Errorf("level %s: %w", level, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) executeOr(q parser.Query, res *results.QueryResult) error {
	if err := r.checkLevels(q); err != nil {
		return err
	}

	session := r.engine.NewSession().From(query.Criteria(q.Criteria))
	if err := session.Err(); err != nil {
		return err
	}

	matches := session.Matches()
	res.Matches = make(map[string][]string, len(matches))
	for field, infos := range matches {
		keys := make([]string, len(infos))
		for i, info := range infos {
			keys[i] = info.Key
		}
		res.Matches[field] = keys
	}

	var errs []error
	for _, level := range sortedLevels(q.Project) {
		projections := make(map[string][]project.Projection, len(q.Project[level]))
		for _, field := range q.Project[level] {
			rows, err := session.Element(field)
			if err != nil {
				errs = append(errs, fmt.Errorf("level %s: %w", level, err))
				continue
			}
			projections[field] = rows
		}
		setProjections(res, level, projections)
	}

	return errors.Join(errs...)
}

func (r *Runner) checkLevels(q parser.Query) error {
	desc := r.engine.Analyzer().Descriptor()
	for level := range q.Project {
		if _, ok := desc.Index(level); !ok {
			return fmt.Errorf("%w: unknown level %q in projection, schema %s declares %v",
				query.ErrInvalidArgument, level, desc.Name, desc.Names())
		}
	}
	return nil
}

func setProjections(res *results.QueryResult, level string, projections map[string][]project.Projection) {
	if len(projections) == 0 {
		return
	}
	if res.Projections == nil {
		res.Projections = make(map[string]map[string][]project.Projection)
	}
	res.Projections[level] = projections
}

func sortedLevels(projection map[string][]string) []string {
	levels := make([]string, 0, len(projection))
	for level := range projection {
		levels = append(levels, level)
	}
	slices.Sort(levels)
	return levels
}
