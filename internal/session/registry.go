package session

import (
	"errors"
	"sync"
	"time"

	"live-service/internal/constants"
	"live-service/internal/models"
)

var (
	ErrDuplicateSession    = errors.New("quiz session already exists")
	ErrSessionNotFound     = errors.New("quiz not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrUnauthorized        = errors.New("only host can start the quiz")
	ErrQuizClosed          = errors.New("quiz has already started")
)

// Registry owns every live quiz session, its answer ledger and the
// user-to-connection directory. Callers never see the underlying maps; the
// exported operations are the only way to mutate session state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*quizSession
	ledgers  map[string]*Ledger

	directory     *Directory
	allowLateJoin bool
}

func NewRegistry(directory *Directory, allowLateJoin bool) *Registry {
	return &Registry{
		sessions:      make(map[string]*quizSession),
		ledgers:       make(map[string]*Ledger),
		directory:     directory,
		allowLateJoin: allowLateJoin,
	}
}

func (r *Registry) Directory() *Directory {
	return r.directory
}

// CreateSession registers a new session in waiting state with the host as
// its sole participant. The quiz document must already exist in the durable
// store; validating the invite code is the caller's job.
func (r *Registry) CreateSession(quizID, hostID, hostName string, numQuestions int, connectionID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[quizID]; ok {
		return Snapshot{}, ErrDuplicateSession
	}

	s := &quizSession{
		quizID:       quizID,
		hostID:       hostID,
		hostName:     hostName,
		numQuestions: numQuestions,
		participants: []Participant{{ID: hostID, Name: hostName, ConnectionID: connectionID}},
		status:       constants.SessionStatusWaiting,
		createdAt:    time.Now(),
	}
	r.sessions[quizID] = s
	r.ledgers[quizID] = NewLedger()
	r.directory.Bind(hostID, connectionID)

	return s.snapshot(), nil
}

// JoinSession adds a participant to the roster, or refreshes the stored
// connection id when the participant id is already present (page reload).
// The returned bool reports a first join; only those get broadcast.
func (r *Registry) JoinSession(quizID, participantID, participantName, connectionID string) (Snapshot, bool, error) {
	s, ok := r.lookup(quizID)
	if !ok {
		return Snapshot{}, false, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return Snapshot{}, false, ErrSessionNotFound
	}

	if i := s.findParticipant(participantID); i >= 0 {
		s.participants[i].ConnectionID = connectionID
		r.directory.Bind(participantID, connectionID)
		return s.snapshot(), false, nil
	}

	if s.status != constants.SessionStatusWaiting && !r.allowLateJoin {
		return Snapshot{}, false, ErrQuizClosed
	}

	s.participants = append(s.participants, Participant{
		ID:           participantID,
		Name:         participantName,
		ConnectionID: connectionID,
	})
	r.directory.Bind(participantID, connectionID)

	return s.snapshot(), true, nil
}

// RejoinSession rebinds an existing participant to a new connection without
// touching the roster shape. No join broadcast follows a rejoin.
func (r *Registry) RejoinSession(quizID, participantID, connectionID string) (Snapshot, error) {
	s, ok := r.lookup(quizID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return Snapshot{}, ErrSessionNotFound
	}

	i := s.findParticipant(participantID)
	if i < 0 {
		return Snapshot{}, ErrParticipantNotFound
	}
	s.participants[i].ConnectionID = connectionID
	r.directory.Bind(participantID, connectionID)

	return s.snapshot(), nil
}

// StartSession moves a waiting session to in_progress. Status only ever
// moves forward: waiting -> in_progress -> completed.
func (r *Registry) StartSession(quizID, requesterID string) (Snapshot, error) {
	s, ok := r.lookup(quizID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return Snapshot{}, ErrSessionNotFound
	}

	if requesterID != s.hostID {
		return Snapshot{}, ErrUnauthorized
	}
	if s.status != constants.SessionStatusWaiting {
		return Snapshot{}, ErrQuizClosed
	}
	s.status = constants.SessionStatusInProgress
	s.currentIndex = 0

	return s.snapshot(), nil
}

// Get returns the current state of a session.
func (r *Registry) Get(quizID string) (Snapshot, error) {
	s, ok := r.lookup(quizID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Ledger returns the answer ledger for a session.
func (r *Registry) Ledger(quizID string) (*Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[quizID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return l, nil
}

// DeleteSession drops a session and its ledger.
func (r *Registry) DeleteSession(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[quizID]; ok {
		s.mu.Lock()
		s.deleted = true
		s.mu.Unlock()
	}
	delete(r.sessions, quizID)
	delete(r.ledgers, quizID)
}

// Progress reports the outcome of checking question progression after an
// answer landed in the ledger.
type Progress struct {
	Advanced  bool
	Completed bool
	NextIndex int
	Session   Snapshot
}

// CompleteAnswer advances the current question once every participant on the
// roster has a ledger entry for it, and completes the session after the last
// question.
func (r *Registry) CompleteAnswer(quizID string, questionIndex int) (Progress, error) {
	s, ok := r.lookup(quizID)
	if !ok {
		return Progress{}, ErrSessionNotFound
	}
	ledger, err := r.Ledger(quizID)
	if err != nil {
		return Progress{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted {
		return Progress{}, ErrSessionNotFound
	}

	if s.status != constants.SessionStatusInProgress || questionIndex != s.currentIndex {
		return Progress{Session: s.snapshot()}, nil
	}
	if ledger.DistinctAnswered(questionIndex) < len(s.participants) {
		return Progress{Session: s.snapshot()}, nil
	}

	s.currentIndex++
	if s.currentIndex >= s.numQuestions {
		s.status = constants.SessionStatusCompleted
		return Progress{Advanced: true, Completed: true, NextIndex: s.currentIndex, Session: s.snapshot()}, nil
	}
	return Progress{Advanced: true, NextIndex: s.currentIndex, Session: s.snapshot()}, nil
}

// Departure describes a disconnect that turned out to be a real departure.
type Departure struct {
	Participant Participant
	Session     Snapshot
	HostLeft    bool
}

// Reconcile runs the disconnect policy for a dropped connection against
// every session it belongs to. The connected callback reports whether a
// connection id is still registered on the transport.
//
// A disconnect is superseded when the directory already points the user at a
// different, still-live connection: the user reconnected before the old
// connection's teardown was processed, so nothing is removed and nothing is
// broadcast for that session. The directory lookup happens under the same
// session lock that join and rejoin take while updating the participant
// record, so a fully applied reconnect is always visible here.
func (r *Registry) Reconcile(connectionID string, connected func(connectionID string) bool) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	var departures []Departure
	for quizID, s := range r.sessions {
		s.mu.Lock()
		i := s.findByConnection(connectionID)
		if i < 0 {
			s.mu.Unlock()
			continue
		}

		p := s.participants[i]
		if current, ok := r.directory.Resolve(p.ID); ok && current != connectionID && connected(current) {
			// Superseded: the user already holds a newer live connection.
			s.mu.Unlock()
			continue
		}

		s.participants = append(s.participants[:i], s.participants[i+1:]...)
		r.directory.UnbindIfMatches(p.ID, connectionID)

		dep := Departure{
			Participant: p,
			Session:     s.snapshot(),
			HostLeft:    p.ID == s.hostID && s.status == constants.SessionStatusWaiting,
		}
		if dep.HostLeft {
			s.deleted = true
		}
		s.mu.Unlock()

		if dep.HostLeft {
			delete(r.sessions, quizID)
			delete(r.ledgers, quizID)
		}
		departures = append(departures, dep)
	}
	return departures
}

// Leaderboard folds the session's ledger into per-participant counters.
// Answers from participants no longer on the roster are dropped.
func (r *Registry) Leaderboard(quizID string) ([]models.LeaderboardEntry, error) {
	snap, err := r.Get(quizID)
	if err != nil {
		return nil, err
	}
	ledger, err := r.Ledger(quizID)
	if err != nil {
		return nil, err
	}
	return ComputeLeaderboard(snap.Participants, ledger.Snapshot()), nil
}

func (r *Registry) lookup(quizID string) (*quizSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[quizID]
	return s, ok
}
