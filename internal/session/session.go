package session

import (
	"sync"
	"time"
)

type Participant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ConnectionID string `json:"-"`
}

// quizSession is the live aggregate for one invite code. All mutation goes
// through Registry methods while the session's own mutex is held; the
// directory binding for a participant is updated inside the same critical
// section so that join, rejoin and disconnect handling for one user never
// interleave.
type quizSession struct {
	mu sync.Mutex

	// deleted marks a session torn down by the host-leave cascade; an
	// operation that raced the teardown and got the pointer before the map
	// delete must treat it as gone.
	deleted bool

	quizID       string
	hostID       string
	hostName     string
	numQuestions int
	participants []Participant
	status       string
	currentIndex int
	createdAt    time.Time
}

// Snapshot is an immutable copy of a session's state, safe to hand to
// broadcast payloads.
type Snapshot struct {
	QuizID               string        `json:"quizId"`
	HostID               string        `json:"hostId"`
	HostName             string        `json:"hostName"`
	NumQuestions         int           `json:"numQuestions"`
	Participants         []Participant `json:"participants"`
	Status               string        `json:"status"`
	CurrentQuestionIndex int           `json:"currentQuestion"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// snapshot copies the session state. Callers must hold s.mu.
func (s *quizSession) snapshot() Snapshot {
	participants := make([]Participant, len(s.participants))
	copy(participants, s.participants)
	return Snapshot{
		QuizID:               s.quizID,
		HostID:               s.hostID,
		HostName:             s.hostName,
		NumQuestions:         s.numQuestions,
		Participants:         participants,
		Status:               s.status,
		CurrentQuestionIndex: s.currentIndex,
		CreatedAt:            s.createdAt,
	}
}

func (s *quizSession) findParticipant(participantID string) int {
	for i, p := range s.participants {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

func (s *quizSession) findByConnection(connectionID string) int {
	for i, p := range s.participants {
		if p.ConnectionID == connectionID {
			return i
		}
	}
	return -1
}
