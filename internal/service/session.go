package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"branchline/internal/codec"
	"branchline/internal/domain"
	"branchline/internal/engine"
	"branchline/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reasons recorded in SessionPayload.Closed
const (
	ClosedByCaller = "closed"
	ClosedIdle     = "idle"
)

// GraphSource loads a graph the caller may mutate
type GraphSource interface {
	Get(ctx context.Context, name string) (*domain.Container, error)
}

// SessionConfig bounds the session store
type SessionConfig struct {
	// MaxActive caps concurrently held sessions; zero means unlimited
	MaxActive int

	// IdleTimeout is how long a session may go untouched before Reap
	// drops it; zero disables reaping
	IdleTimeout time.Duration

	// Resolver, when set, supplies a text resolver per graph
	Resolver func(graph string) engine.TextResolver
}

// SessionInfo is a snapshot of one live session
type SessionInfo struct {
	ID         string            `json:"id"`
	Graph      string            `json:"graph"`
	State      engine.State      `json:"state"`
	Properties domain.Properties `json:"properties"`
	StartedAt  time.Time         `json:"started_at"`
	LastActive time.Time         `json:"last_active"`
}

// liveSession pairs an engine session with bookkeeping. mu serializes
// steps because engine.Session is single-threaded.
type liveSession struct {
	mu         sync.Mutex
	id         string
	graph      string
	session    *engine.Session
	startedAt  time.Time
	lastActive time.Time
}

func (ls *liveSession) info() SessionInfo {
	return SessionInfo{
		ID:         ls.id,
		Graph:      ls.graph,
		State:      ls.session.State(),
		Properties: ls.session.Properties(),
		StartedAt:  ls.startedAt,
		LastActive: ls.lastActive,
	}
}

// SessionService runs dialogue sessions for many concurrent callers. Each
// session owns a private copy of its graph, so property changes in one
// session are invisible to every other session and to the stored graph.
type SessionService struct {
	graphs   GraphSource
	eventBus *EventBus
	logger   *zap.Logger
	metrics  *metrics.Collector
	cfg      SessionConfig
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// NewSessionService creates a session service. logger and collector may be nil.
func NewSessionService(graphs GraphSource, eventBus *EventBus, logger *zap.Logger, collector *metrics.Collector, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		graphs:   graphs,
		eventBus: eventBus,
		logger:   logger,
		metrics:  collector,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// Count returns the number of held sessions
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start loads graphName, starts a session at its entry and registers it.
// A graph without a usable entry is refused and nothing is registered.
func (s *SessionService) Start(ctx context.Context, graphName string) (SessionInfo, error) {
	if s.cfg.MaxActive > 0 && s.Count() >= s.cfg.MaxActive {
		return SessionInfo{}, ErrTooManySessions
	}

	graph, err := s.graphs.Get(ctx, graphName)
	if err != nil {
		return SessionInfo{}, err
	}

	id := uuid.NewString()
	logger := s.logger.With(zap.String("session_id", id), zap.String("graph", graphName))

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithObserver(s.metrics.Observer()),
	}
	if s.cfg.Resolver != nil {
		if r := s.cfg.Resolver(graphName); r != nil {
			opts = append(opts, engine.WithTextResolver(r))
		}
	}

	session := engine.New(graph, opts...)
	if _, err := session.Start(); err != nil {
		return SessionInfo{}, fmt.Errorf("start %s: %w", graphName, err)
	}

	now := s.now()
	ls := &liveSession{
		id:         id,
		graph:      graphName,
		session:    session,
		startedAt:  now,
		lastActive: now,
	}

	// Snapshot before the session becomes visible to other callers
	info := ls.info()

	s.mu.Lock()
	if s.cfg.MaxActive > 0 && len(s.sessions) >= s.cfg.MaxActive {
		s.mu.Unlock()
		return SessionInfo{}, ErrTooManySessions
	}
	s.sessions[id] = ls
	active := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionStarted(active)
	logger.Info("session started", zap.String("node_id", info.State.NodeID))
	s.publishSession(EventSessionStarted, info, "")
	if info.State.Ended() {
		s.recordEnd(info)
	}

	return info, nil
}

// Get returns a snapshot of a session
func (s *SessionService) Get(id string) (SessionInfo, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.info(), nil
}

// List returns snapshots of every held session
func (s *SessionService) List() []SessionInfo {
	s.mu.RLock()
	held := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		held = append(held, ls)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(held))
	for _, ls := range held {
		ls.mu.Lock()
		infos = append(infos, ls.info())
		ls.mu.Unlock()
	}
	return infos
}

// Proceed follows a choice. Errors from the engine (not started, already
// ended, choice not offered) leave the session unchanged.
func (s *SessionService) Proceed(id, targetID string) (SessionInfo, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	ls.mu.Lock()
	state, err := ls.session.Proceed(targetID)
	if err == nil {
		ls.lastActive = s.now()
	}
	info := ls.info()
	ls.mu.Unlock()

	if err != nil {
		return info, err
	}

	s.metrics.SessionStep()
	s.publishSession(EventSessionAdvanced, info, "")
	if state.Ended() {
		s.recordEnd(info)
	}

	return info, nil
}

// SetProperty changes a property of one session's graph copy
func (s *SessionService) SetProperty(id, name, value string) (SessionInfo, error) {
	ls, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	ls.mu.Lock()
	err = ls.session.SetProperty(name, value)
	if err == nil {
		ls.lastActive = s.now()
	}
	info := ls.info()
	ls.mu.Unlock()

	if err != nil {
		return info, err
	}

	s.eventBus.Publish(Event{
		Type: EventPropertyChanged,
		Payload: PropertyPayload{
			Graph:     info.Graph,
			SessionID: id,
			Property:  name,
			Value:     value,
		},
	})

	return info, nil
}

// End drops a session
func (s *SessionService) End(id string) error {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.metrics.SessionsHeld(active)

	ls.mu.Lock()
	info := ls.info()
	ls.mu.Unlock()

	s.logger.Info("session closed", zap.String("session_id", id))
	s.publishSession(EventSessionEnded, info, ClosedByCaller)
	return nil
}

// Reap drops sessions idle for longer than the configured timeout and
// returns how many were dropped
func (s *SessionService) Reap(now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}

	var reaped []*liveSession

	s.mu.Lock()
	for id, ls := range s.sessions {
		ls.mu.Lock()
		idle := now.Sub(ls.lastActive) > s.cfg.IdleTimeout
		ls.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			reaped = append(reaped, ls)
		}
	}
	active := len(s.sessions)
	s.mu.Unlock()

	if len(reaped) == 0 {
		return 0
	}

	s.metrics.SessionsHeld(active)
	for _, ls := range reaped {
		ls.mu.Lock()
		info := ls.info()
		ls.mu.Unlock()
		s.publishSession(EventSessionEnded, info, ClosedIdle)
	}
	s.logger.Info("reaped idle sessions", zap.Int("count", len(reaped)), zap.Int("active", active))

	return len(reaped)
}

// Run reaps idle sessions periodically until ctx is cancelled
func (s *SessionService) Run(ctx context.Context) {
	if s.cfg.IdleTimeout <= 0 {
		<-ctx.Done()
		return
	}

	interval := s.cfg.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap(s.now())
		}
	}
}

func (s *SessionService) lookup(id string) (*liveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ls, nil
}

// recordEnd publishes a session reaching an end state. The session stays
// held so its final state can still be read until End or Reap.
func (s *SessionService) recordEnd(info SessionInfo) {
	s.metrics.SessionEnded(info.State.EndReason)
	s.logger.Info("session ended",
		zap.String("session_id", info.ID),
		zap.String("reason", string(info.State.EndReason)))
	s.publishSession(EventSessionEnded, info, "")
}

func (s *SessionService) publishSession(t EventType, info SessionInfo, closed string) {
	s.eventBus.Publish(Event{
		Type: t,
		Payload: SessionPayload{
			SessionID: info.ID,
			Graph:     info.Graph,
			State:     info.State,
			Closed:    closed,
		},
	})
}

// IsClientError reports whether err is caused by the request rather than
// the server: unknown ids, refused choices, bad names and similar
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound,
		ErrGraphNotFound,
		ErrInvalidGraphName,
		ErrInvalidGraph,
		codec.ErrUnknownFormat,
		ErrTooManySessions,
		engine.ErrInvalidChoice,
		engine.ErrNotStarted,
		engine.ErrSessionEnded,
		engine.ErrNoEntry,
		domain.ErrPropertyNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
