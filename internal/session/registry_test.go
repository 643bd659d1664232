package session

import (
	"errors"
	"testing"

	"live-service/internal/constants"
	"live-service/internal/models"
)

func newTestRegistry(t *testing.T, allowLateJoin bool) *Registry {
	t.Helper()
	return NewRegistry(NewDirectory(), allowLateJoin)
}

func createSession(t *testing.T, r *Registry) Snapshot {
	t.Helper()
	snap, err := r.CreateSession("ABC123", "u1", "Alice", 3, "c-host")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return snap
}

func TestCreateSession(t *testing.T) {
	r := newTestRegistry(t, false)
	snap := createSession(t, r)

	if snap.Status != constants.SessionStatusWaiting {
		t.Fatalf("new session status = %q; want waiting", snap.Status)
	}
	if len(snap.Participants) != 1 || snap.Participants[0].ID != "u1" {
		t.Fatalf("host should be the sole initial participant, got %+v", snap.Participants)
	}
	if conn, _ := r.Directory().Resolve("u1"); conn != "c-host" {
		t.Fatalf("host not bound in directory, got %q", conn)
	}

	if _, err := r.CreateSession("ABC123", "u9", "Eve", 1, "c9"); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("duplicate create err = %v; want ErrDuplicateSession", err)
	}
}

func TestJoinSessionIdempotent(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)

	snap, first, err := r.JoinSession("ABC123", "u2", "Bob", "c1")
	if err != nil {
		t.Fatalf("JoinSession: %v", err)
	}
	if !first {
		t.Fatal("first join should be reported as first")
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("participants = %d; want 2", len(snap.Participants))
	}

	// Same participant joining again (page reload) only refreshes the
	// connection id and must not be reported as a first join.
	snap, first, err = r.JoinSession("ABC123", "u2", "Bob", "c2")
	if err != nil {
		t.Fatalf("JoinSession again: %v", err)
	}
	if first {
		t.Fatal("repeat join must not be reported as first")
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("participants after repeat join = %d; want 2", len(snap.Participants))
	}
	if snap.Participants[1].ConnectionID != "c2" {
		t.Fatalf("repeat join should refresh connection id, got %q", snap.Participants[1].ConnectionID)
	}
	if conn, _ := r.Directory().Resolve("u2"); conn != "c2" {
		t.Fatalf("directory out of sync after repeat join: %q", conn)
	}

	if _, _, err := r.JoinSession("NOPE", "u2", "Bob", "c2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("join unknown quiz err = %v; want ErrSessionNotFound", err)
	}
}

func TestLateJoinPolicy(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		r := newTestRegistry(t, false)
		createSession(t, r)
		if _, err := r.StartSession("ABC123", "u1"); err != nil {
			t.Fatalf("StartSession: %v", err)
		}

		if _, _, err := r.JoinSession("ABC123", "u2", "Bob", "c1"); !errors.Is(err, ErrQuizClosed) {
			t.Fatalf("late join err = %v; want ErrQuizClosed", err)
		}
	})

	t.Run("admitted when enabled", func(t *testing.T) {
		r := newTestRegistry(t, true)
		createSession(t, r)
		if _, err := r.StartSession("ABC123", "u1"); err != nil {
			t.Fatalf("StartSession: %v", err)
		}

		snap, first, err := r.JoinSession("ABC123", "u2", "Bob", "c1")
		if err != nil {
			t.Fatalf("late join with flag: %v", err)
		}
		if !first || len(snap.Participants) != 2 {
			t.Fatalf("late joiner not admitted: first=%v participants=%d", first, len(snap.Participants))
		}
	})
}

func TestRejoinSession(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)
	r.JoinSession("ABC123", "u2", "Bob", "c1")

	snap, err := r.RejoinSession("ABC123", "u2", "c2")
	if err != nil {
		t.Fatalf("RejoinSession: %v", err)
	}
	if len(snap.Participants) != 2 {
		t.Fatalf("rejoin must not change roster shape, got %d participants", len(snap.Participants))
	}
	if snap.Participants[1].ConnectionID != "c2" {
		t.Fatalf("rejoin should rebind connection, got %q", snap.Participants[1].ConnectionID)
	}
	if conn, _ := r.Directory().Resolve("u2"); conn != "c2" {
		t.Fatalf("directory not updated by rejoin: %q", conn)
	}

	if _, err := r.RejoinSession("ABC123", "u9", "c9"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("rejoin unknown participant err = %v; want ErrParticipantNotFound", err)
	}
	if _, err := r.RejoinSession("NOPE", "u2", "c9"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("rejoin unknown quiz err = %v; want ErrSessionNotFound", err)
	}
}

func TestStartSession(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)

	if _, err := r.StartSession("ABC123", "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-host start err = %v; want ErrUnauthorized", err)
	}

	snap, err := r.StartSession("ABC123", "u1")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if snap.Status != constants.SessionStatusInProgress || snap.CurrentQuestionIndex != 0 {
		t.Fatalf("started session = %q idx %d; want in_progress idx 0", snap.Status, snap.CurrentQuestionIndex)
	}

	// Status only moves forward.
	if _, err := r.StartSession("ABC123", "u1"); !errors.Is(err, ErrQuizClosed) {
		t.Fatalf("second start err = %v; want ErrQuizClosed", err)
	}
	got, _ := r.Get("ABC123")
	if got.Status != constants.SessionStatusInProgress {
		t.Fatalf("status moved backward to %q", got.Status)
	}
}

func TestReconcileSupersededDisconnect(t *testing.T) {
	connected := func(connID string) bool { return connID == "c2" || connID == "c-host" }

	t.Run("rejoin already applied", func(t *testing.T) {
		r := newTestRegistry(t, false)
		createSession(t, r)
		r.JoinSession("ABC123", "u2", "Bob", "c1")

		// Bob reconnects under c2 before the disconnect for c1 is processed.
		if _, err := r.RejoinSession("ABC123", "u2", "c2"); err != nil {
			t.Fatalf("RejoinSession: %v", err)
		}

		deps := r.Reconcile("c1", connected)
		if len(deps) != 0 {
			t.Fatalf("superseded disconnect must be a no-op, got departure of %s", deps[0].Participant.ID)
		}

		snap, _ := r.Get("ABC123")
		if len(snap.Participants) != 2 || snap.Participants[1].ConnectionID != "c2" {
			t.Fatalf("roster disturbed by superseded disconnect: %+v", snap.Participants)
		}
	})

	t.Run("newer binding only", func(t *testing.T) {
		// Bob's new connection has announced itself (directory rebound) but
		// has not rejoined the session yet when the old disconnect lands.
		r := newTestRegistry(t, false)
		createSession(t, r)
		r.JoinSession("ABC123", "u2", "Bob", "c1")
		r.Directory().Bind("u2", "c2")

		deps := r.Reconcile("c1", connected)
		if len(deps) != 0 {
			t.Fatalf("disconnect with a newer live binding must be a no-op, got %+v", deps)
		}

		snap, _ := r.Get("ABC123")
		if len(snap.Participants) != 2 {
			t.Fatalf("participant dropped despite pending reconnect: %+v", snap.Participants)
		}
	})

	t.Run("newer binding but dead connection", func(t *testing.T) {
		// The directory points elsewhere but that connection is gone too:
		// a genuine departure.
		r := newTestRegistry(t, false)
		createSession(t, r)
		r.JoinSession("ABC123", "u2", "Bob", "c1")
		r.Directory().Bind("u2", "c-dead")

		deps := r.Reconcile("c1", func(connID string) bool { return connID == "c-host" })
		if len(deps) != 1 || deps[0].Participant.ID != "u2" {
			t.Fatalf("expected departure of u2, got %+v", deps)
		}
	})
}

func TestReconcileGenuineDeparture(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)
	r.JoinSession("ABC123", "u2", "Bob", "c1")

	deps := r.Reconcile("c1", func(connID string) bool { return connID == "c-host" })
	if len(deps) != 1 {
		t.Fatalf("expected exactly one departure, got %+v", deps)
	}
	dep := deps[0]
	if dep.Participant.ID != "u2" || dep.HostLeft {
		t.Fatalf("departure = %+v; want u2, no host cascade", dep)
	}
	if len(dep.Session.Participants) != 1 {
		t.Fatalf("roster after departure = %d; want 1", len(dep.Session.Participants))
	}
	if _, ok := r.Directory().Resolve("u2"); ok {
		t.Fatal("directory binding should be removed on genuine departure")
	}
}

func TestReconcileAcrossSessions(t *testing.T) {
	// One connection can sit in several quizzes; a genuine departure has to
	// remove the participant from each of them.
	r := newTestRegistry(t, false)
	createSession(t, r)
	if _, err := r.CreateSession("XYZ789", "u9", "Zoe", 2, "c-zoe"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	r.JoinSession("ABC123", "u2", "Bob", "c1")
	r.JoinSession("XYZ789", "u2", "Bob", "c1")

	deps := r.Reconcile("c1", func(string) bool { return false })
	if len(deps) != 2 {
		t.Fatalf("expected a departure per session, got %+v", deps)
	}

	for _, quizID := range []string{"ABC123", "XYZ789"} {
		snap, err := r.Get(quizID)
		if err != nil {
			t.Fatalf("Get(%s): %v", quizID, err)
		}
		if len(snap.Participants) != 1 {
			t.Fatalf("ghost participant left in %s: %+v", quizID, snap.Participants)
		}
	}
}

func TestReconcileUnknownConnection(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)

	if deps := r.Reconcile("c-unknown", func(string) bool { return false }); len(deps) != 0 {
		t.Fatalf("unknown connection should be a no-op, got %+v", deps)
	}
}

func TestHostCascadeOnlyWhileWaiting(t *testing.T) {
	t.Run("waiting", func(t *testing.T) {
		r := newTestRegistry(t, false)
		createSession(t, r)
		r.JoinSession("ABC123", "u2", "Bob", "c1")

		deps := r.Reconcile("c-host", func(string) bool { return false })
		if len(deps) != 1 || !deps[0].HostLeft {
			t.Fatalf("host disconnect while waiting should cascade, got %+v", deps)
		}
		if _, err := r.Get("ABC123"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatal("session should be deleted after host cascade")
		}
		if _, err := r.Ledger("ABC123"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatal("ledger should be deleted with its session")
		}
	})

	t.Run("in_progress", func(t *testing.T) {
		r := newTestRegistry(t, false)
		createSession(t, r)
		r.JoinSession("ABC123", "u2", "Bob", "c1")
		if _, err := r.StartSession("ABC123", "u1"); err != nil {
			t.Fatalf("StartSession: %v", err)
		}

		deps := r.Reconcile("c-host", func(string) bool { return false })
		if len(deps) != 1 || deps[0].HostLeft {
			t.Fatalf("host disconnect while in_progress must not cascade, got %+v", deps)
		}
		snap, err := r.Get("ABC123")
		if err != nil {
			t.Fatalf("session should survive host departure after start: %v", err)
		}
		if len(snap.Participants) != 1 || snap.Participants[0].ID != "u2" {
			t.Fatalf("roster after host departure = %+v", snap.Participants)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	r := newTestRegistry(t, false)
	createSession(t, r)

	r.DeleteSession("ABC123")

	if _, err := r.Get("ABC123"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("session should be gone after delete")
	}
	if _, err := r.Ledger("ABC123"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("ledger should be dropped with its session")
	}
	if _, _, err := r.JoinSession("ABC123", "u2", "Bob", "c1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("join after delete err = %v; want ErrSessionNotFound", err)
	}
}

func TestCompleteAnswerProgression(t *testing.T) {
	r := newTestRegistry(t, false)
	if _, err := r.CreateSession("ABC123", "u1", "Alice", 2, "c-host"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	r.JoinSession("ABC123", "u2", "Bob", "c1")
	if _, err := r.StartSession("ABC123", "u1"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	ledger, err := r.Ledger("ABC123")
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}

	answer := func(participantID string, index int) {
		ledger.Append(models.AnswerRecord{
			QuizID:        "ABC123",
			ParticipantID: participantID,
			QuestionIndex: index,
			Answer:        "x",
		})
	}

	answer("u1", 0)
	prog, err := r.CompleteAnswer("ABC123", 0)
	if err != nil {
		t.Fatalf("CompleteAnswer: %v", err)
	}
	if prog.Advanced {
		t.Fatal("question must not advance before every participant answered")
	}

	answer("u2", 0)
	prog, _ = r.CompleteAnswer("ABC123", 0)
	if !prog.Advanced || prog.Completed || prog.NextIndex != 1 {
		t.Fatalf("progress after q0 = %+v; want advance to 1", prog)
	}

	answer("u1", 1)
	answer("u2", 1)
	prog, _ = r.CompleteAnswer("ABC123", 1)
	if !prog.Advanced || !prog.Completed {
		t.Fatalf("progress after last question = %+v; want completed", prog)
	}
	if prog.Session.Status != constants.SessionStatusCompleted {
		t.Fatalf("status = %q; want completed", prog.Session.Status)
	}
}
