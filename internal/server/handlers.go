package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/jacoelho/jsonhash/internal/pathinfo"
	"github.com/jacoelho/jsonhash/internal/project"
	"github.com/jacoelho/jsonhash/internal/query"
	"github.com/jacoelho/jsonhash/internal/schema"
)

const maxBodyBytes = 1 << 20

type findRequest struct {
	Criteria map[string]any `json:"criteria"`
}

type findResponse struct {
	Session string        `json:"session"`
	Matches query.Matches `json:"matches"`
}

type joinRequest struct {
	Criteria map[string]any      `json:"criteria"`
	Project  map[string][]string `json:"project,omitempty"`
}

// joinResponse carries the join even when some projection fields fail;
// those failures are listed in Errors.
type joinResponse struct {
	Session     string                                     `json:"session"`
	Join        query.Join                                 `json:"join"`
	Projections map[string]map[string][]project.Projection `json:"projections,omitempty"`
	Errors      []string                                   `json:"errors,omitempty"`
}

// projectRequest projects Fields either from explicit Paths or from the
// paths matching Criteria.
type projectRequest struct {
	Paths    []string       `json:"paths,omitempty"`
	Criteria map[string]any `json:"criteria,omitempty"`
	Fields   []string       `json:"fields"`
}

type projectResponse struct {
	Session     string                          `json:"session"`
	Projections map[string][]project.Projection `json:"projections"`
	Errors      []string                        `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := criteria(req.Criteria)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	session := s.engine.NewSession().From(c)
	if err := session.Err(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, findResponse{
		Session: session.ID.String(),
		Matches: session.Matches(),
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := criteria(req.Criteria)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	desc := s.engine.Analyzer().Descriptor()
	for level := range req.Project {
		if _, ok := desc.Index(level); !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: unknown level %q", query.ErrInvalidArgument, level))
			return
		}
	}

	session := s.engine.NewSession()
	join, err := session.Join(c)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := joinResponse{
		Session: session.ID.String(),
		Join:    join,
	}
	for level, fields := range req.Project {
		projections, err := s.engine.ProjectMany(join.Level(level).Sorted(), fields)
		for _, msg := range errorList(err) {
			resp.Errors = append(resp.Errors, "level "+level+": "+msg)
		}
		if len(projections) == 0 {
			continue
		}
		if resp.Projections == nil {
			resp.Projections = make(map[string]map[string][]project.Projection)
		}
		resp.Projections[level] = projections
	}
	slices.Sort(resp.Errors)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: no fields to project", query.ErrInvalidArgument))
		return
	}
	if (req.Paths == nil) == (req.Criteria == nil) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: exactly one of paths or criteria is required", query.ErrInvalidArgument))
		return
	}

	session := s.engine.NewSession()
	paths := req.Paths
	if req.Criteria != nil {
		c, err := criteria(req.Criteria)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if err := session.From(c).Err(); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		paths = session.WorkingSet()
	}

	// Fields that fail are reported next to the ones that succeeded; the
	// request only fails when nothing could be projected.
	projections, err := s.engine.ProjectMany(paths, req.Fields)
	if err != nil && len(projections) == 0 {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{
		Session:     session.ID.String(),
		Projections: projections,
		Errors:      errorList(err),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "jsonhash",
		"entries": s.engine.Record().Len(),
	})
}

// errorList flattens an errors.Join result into its messages.
func errorList(err error) []string {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, errorList(e)...)
	}
	return out
}

func criteria(raw map[string]any) (query.Criteria, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: criteria is required", query.ErrInvalidArgument)
	}
	return query.ParseCriteria(raw)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrConfigurationMissing),
		errors.Is(err, pathinfo.ErrStructuralAssumption):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
