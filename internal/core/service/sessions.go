package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultIdleTimeout = time.Hour

type SessionStore interface {
	Session(ctx context.Context, chatID int64) (*Workflow, error)
}

// WorkflowFactory builds the workflow for a new chat session.
type WorkflowFactory func(chatID int64) *Workflow

type SessionParams struct {
	Factory     WorkflowFactory
	IdleTimeout time.Duration
	// OnCreate runs once per new session, before the initial gallery load. The returned
	// func, if any, is called when the session expires or the store is closed.
	OnCreate func(chatID int64, wf *Workflow) func()
}

// Sessions keeps one workflow per chat. A session that sees no activity for the idle
// timeout is dropped; the next message for that chat starts a fresh one.
type Sessions struct {
	factory     WorkflowFactory
	idleTimeout time.Duration
	onCreate    func(chatID int64, wf *Workflow) func()
	cache       *sync.Map
	l           *zerolog.Logger
}

type session struct {
	chatID   int64
	workflow *Workflow
	detach   func()
	touch    chan struct{}
	done     chan struct{}
	stop     sync.Once

	mu      sync.Mutex
	expired bool
}

func NewSessions(p SessionParams) *Sessions {
	idle := p.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	logger := log.With().Str("component", "sessions").Logger()

	return &Sessions{
		factory:     p.Factory,
		idleTimeout: idle,
		onCreate:    p.OnCreate,
		cache:       &sync.Map{},
		l:           &logger,
	}
}

// Session returns the workflow for chatID, creating and mounting it on first use.
// Every call counts as activity.
func (s *Sessions) Session(ctx context.Context, chatID int64) (*Workflow, error) {
	l := s.l.With().Int64("chatId", chatID).Logger()

	for {
		if v, ok := s.cache.Load(chatID); ok {
			sess, ok := v.(*session)
			if !ok {
				return nil, errors.New("session type error")
			}

			if sess.reset() {
				l.Trace().Msg("existing session, resetting timer")
				return sess.workflow, nil
			}

			// expired after the lookup
			l.Debug().Msg("session expired, starting a new one")
			s.drop(sess)
			continue
		}

		sess := &session{
			chatID:   chatID,
			workflow: s.factory(chatID),
			touch:    make(chan struct{}, 1),
			done:     make(chan struct{}),
		}

		if _, loaded := s.cache.LoadOrStore(chatID, sess); loaded {
			continue
		}

		l.Debug().Msg("new session")

		if s.onCreate != nil {
			sess.detach = s.onCreate(chatID, sess.workflow)
		}

		go s.startSessionTimer(sess)

		if err := sess.workflow.Mount(ctx); err != nil {
			l.Warn().Err(err).Msg("initial gallery load failed")
		}

		return sess.workflow, nil
	}
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	n := 0
	s.cache.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// Close drops every session.
func (s *Sessions) Close() {
	s.cache.Range(func(key, v any) bool {
		if sess, ok := v.(*session); ok {
			s.drop(sess)
		}
		return true
	})
}

func (s *Sessions) startSessionTimer(sess *session) {
	t := time.NewTimer(s.idleTimeout)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if !sess.tryExpire() {
				t.Reset(s.idleTimeout)
				continue
			}

			s.l.Debug().Int64("chatId", sess.chatID).Msg("session expired")
			s.drop(sess)
			return
		case <-sess.touch:
			t.Reset(s.idleTimeout)
		case <-sess.done:
			return
		}
	}
}

func (s *Sessions) drop(sess *session) {
	sess.mu.Lock()
	sess.expired = true
	sess.mu.Unlock()

	sess.stop.Do(func() {
		s.cache.CompareAndDelete(sess.chatID, sess)
		close(sess.done)

		if sess.detach != nil {
			sess.detach()
		}
	})
}

// reset records activity. It reports false once the session has expired.
func (sess *session) reset() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.expired {
		return false
	}

	select {
	case sess.touch <- struct{}{}:
	default:
	}

	return true
}

// tryExpire marks the session expired unless activity arrived since the timer fired.
func (sess *session) tryExpire() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	select {
	case <-sess.touch:
		return false
	default:
	}

	sess.expired = true
	return true
}
