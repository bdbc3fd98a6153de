package query

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jacoelho/jsonhash/internal/project"
)

// ErrEmptySession indicates Element was called before From.
var ErrEmptySession = errors.New("query: session has no working set")

// Session carries the working set of one query over a shared Engine:
//
//	rows, err := engine.NewSession().From(criteria).Element("admission_date")
//
// A Session is not safe for concurrent use; open one per request.
type Session struct {
	ID      uuid.UUID
	engine  *Engine
	log     zerolog.Logger
	matches Matches
	working []string
	err     error
}

func (e *Engine) NewSession() *Session {
	id := uuid.New()
	e.metrics.ObserveSession()

	return &Session{
		ID:     id,
		engine: e,
		log:    e.log.With().Str("session", id.String()).Logger(),
	}
}

// From replaces the working set with the paths matching c. Errors are
// retained and reported by Element or Err.
func (s *Session) From(c Criteria) *Session {
	matches, err := s.engine.FindByValue(c)
	if err != nil {
		s.err = err
		s.matches, s.working = nil, nil
		return s
	}

	s.err = nil
	s.matches = matches
	s.working = matches.Keys()
	s.log.Debug().Int("working_set", len(s.working)).Msg("session from")

	return s
}

// Join runs JoinAnd and returns its result without touching the working set.
func (s *Session) Join(c Criteria) (Join, error) {
	return s.engine.JoinAnd(c)
}

// Element projects field relative to every path of the working set.
func (s *Session) Element(field string) ([]project.Projection, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.matches == nil {
		return nil, ErrEmptySession
	}
	return s.engine.Project(s.working, field)
}

func (s *Session) Matches() Matches {
	return s.matches
}

func (s *Session) WorkingSet() []string {
	return s.working
}

func (s *Session) Err() error {
	return s.err
}
