package websocket

import (
	"context"
	"log"
	"sync"

	"live-service/internal/grading"
	"live-service/internal/models"
	"live-service/internal/session"
)

// HistoryStore appends a played-quiz reference to a user's record.
type HistoryStore interface {
	AppendPlayedQuiz(ctx context.Context, userID, quizID string) error
}

// ChatStore archives relayed room messages.
type ChatStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
}

// Hub owns connection bookkeeping and room fan-out, and dispatches every
// inbound event to its handler. Session state itself lives in the registry;
// the hub only ever goes through its exported operations.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client            // connection id -> client
	rooms map[string]map[string]*Client // quiz id -> connection id -> client

	Register   chan *Client
	Unregister chan *Client

	registry    *session.Registry
	grader      *grading.Grader
	history     HistoryStore
	chats       ChatStore
	tokenSecret string
}

func NewHub(registry *session.Registry, grader *grading.Grader, history HistoryStore, chats ChatStore, tokenSecret string) *Hub {
	return &Hub{
		conns:       make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		registry:    registry,
		grader:      grader,
		history:     history,
		chats:       chats,
		tokenSecret: tokenSecret,
	}
}

// Run serializes connection lifecycle events. Message handling does not go
// through this loop; each connection dispatches its own events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.conns[client.ConnID] = client
	h.mu.Unlock()

	log.Printf("Client connected: conn=%s", client.ConnID)
}

// unregisterClient tears the connection down and then runs the disconnect
// reconciliation. The transport bookkeeping is dropped first so that the
// liveness check inside Reconcile sees this connection as gone.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.conns[client.ConnID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, client.ConnID)
	for _, members := range h.rooms {
		delete(members, client.ConnID)
	}
	close(client.Send)
	h.mu.Unlock()

	log.Printf("Client disconnected: conn=%s, user=%s", client.ConnID, client.UserID)

	h.reconcileDisconnect(client.ConnID)
}

// reconcileDisconnect decides whether a dropped connection was a real
// departure or was superseded by a newer connection for the same user, and
// broadcasts the fallout of the real ones in every session it was part of.
func (h *Hub) reconcileDisconnect(connID string) {
	for _, dep := range h.registry.Reconcile(connID, h.isConnected) {
		quizID := dep.Session.QuizID
		h.EmitToRoom(quizID, EventParticipantLeft, ParticipantLeftPayload{
			ParticipantID:     dep.Participant.ID,
			ParticipantName:   dep.Participant.Name,
			Participants:      dep.Session.Participants,
			TotalParticipants: len(dep.Session.Participants),
		})
		log.Printf("%s left quiz %s", dep.Participant.Name, quizID)

		if dep.HostLeft {
			h.EmitToRoom(quizID, EventHostLeft, HostLeftPayload{
				Message: "Host has left. Quiz cancelled.",
			})
			h.deleteRoom(quizID)
			log.Printf("Quiz %s deleted due to host leaving", quizID)
		}
	}
}

func (h *Hub) isConnected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[connID]
	return ok
}

// JoinRoom adds a connection to the broadcast group for a quiz.
func (h *Hub) JoinRoom(client *Client, quizID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[quizID] == nil {
		h.rooms[quizID] = make(map[string]*Client)
	}
	h.rooms[quizID][client.ConnID] = client
}

func (h *Hub) deleteRoom(quizID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, quizID)
}

// EmitToRoom delivers an event to every connection in a quiz's room.
func (h *Hub) EmitToRoom(quizID string, eventType EventType, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[quizID] {
		client.SendMessage(eventType, payload)
	}
}
