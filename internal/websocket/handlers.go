package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"live-service/internal/grading"
	"live-service/internal/models"
	"live-service/internal/session"
	"live-service/pkg/token"
)

// HandleEvent routes one inbound event to its handler. It runs on the
// connection's read pump, so events from the same connection are handled in
// the order they arrived.
func (h *Hub) HandleEvent(c *Client, msg Message) {
	log.Printf("Received event: type=%s, conn=%s, user=%s", msg.Type, c.ConnID, c.UserID)

	switch msg.Type {
	case EventUserJoin:
		h.handleUserJoin(c, msg.Payload)
	case EventQuizCreate:
		h.handleQuizCreate(c, msg.Payload)
	case EventQuizJoin:
		h.handleQuizJoin(c, msg.Payload)
	case EventQuizRejoin:
		h.handleQuizRejoin(c, msg.Payload)
	case EventQuizStart:
		h.handleQuizStart(c, msg.Payload)
	case EventQuizAnswer:
		h.handleQuizAnswer(c, msg.Payload)
	case EventQuizLeaderboard:
		h.handleLeaderboard(c, msg.Payload)
	case EventMessageSent:
		h.handleMessageSent(c, msg.Payload)
	default:
		c.SendError(fmt.Sprintf("Unknown event type: %s", msg.Type))
	}
}

func (h *Hub) handleUserJoin(c *Client, raw json.RawMessage) {
	var p UserJoinPayload
	if err := decode(raw, &p); err != nil || p.UserID == "" {
		c.SendError("Invalid user:join payload")
		return
	}

	c.UserID = p.UserID
	h.registry.Directory().Bind(p.UserID, c.ConnID)
	log.Printf("%s bound to conn %s", p.UserName, c.ConnID)
}

func (h *Hub) handleQuizCreate(c *Client, raw json.RawMessage) {
	var p QuizCreatePayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" || p.HostID == "" {
		c.SendError("Invalid quiz:create payload")
		return
	}

	snap, err := h.registry.CreateSession(p.QuizID, p.HostID, p.HostName, p.NumQuestions, c.ConnID)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}

	// The registry bound the host to this connection; the client mirrors the
	// binding so answers are attributed without a separate user:join.
	c.UserID = p.HostID
	h.JoinRoom(c, p.QuizID)
	c.SendMessage(EventQuizCreated, QuizCreatedPayload{
		QuizID:  p.QuizID,
		Message: "Quiz created successfully",
		Quiz:    snap,
	})
	log.Printf("Quiz created: %s by %s", p.QuizID, p.HostName)
}

func (h *Hub) handleQuizJoin(c *Client, raw json.RawMessage) {
	var p QuizJoinPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" || p.ParticipantID == "" {
		c.SendError("Invalid quiz:join payload")
		return
	}

	snap, firstJoin, err := h.registry.JoinSession(p.QuizID, p.ParticipantID, p.ParticipantName, c.ConnID)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}

	c.UserID = p.ParticipantID
	h.JoinRoom(c, p.QuizID)

	resumeToken, err := token.GenerateResumeToken(p.QuizID, p.ParticipantID, h.tokenSecret)
	if err != nil {
		log.Printf("Failed to issue resume token for %s: %v", p.ParticipantID, err)
	}

	c.SendMessage(EventQuizJoined, QuizJoinedPayload{
		QuizID:      p.QuizID,
		Quiz:        snap,
		ResumeToken: resumeToken,
	})

	if !firstJoin {
		return
	}

	h.EmitToRoom(p.QuizID, EventParticipantJoined, ParticipantJoinedPayload{
		ParticipantID:     p.ParticipantID,
		ParticipantName:   p.ParticipantName,
		Participants:      snap.Participants,
		TotalParticipants: len(snap.Participants),
	})
	log.Printf("%s joined quiz %s (%d participants)", p.ParticipantName, p.QuizID, len(snap.Participants))

	// The roster mutation above is authoritative for the live quiz; history
	// bookkeeping trails behind it and must never block or undo it.
	go h.appendHistory(p.ParticipantID, p.QuizID)
}

func (h *Hub) appendHistory(userID, inviteCode string) {
	ctx := context.Background()

	doc, err := h.grader.Lookup(ctx, inviteCode)
	if err != nil {
		log.Printf("Warning: history update skipped, quiz %s not resolvable: %v", inviteCode, err)
		return
	}
	if err := h.history.AppendPlayedQuiz(ctx, userID, doc.ID); err != nil {
		log.Printf("Warning: failed to append quiz %s to history of %s: %v", doc.ID, userID, err)
	}
}

func (h *Hub) handleQuizRejoin(c *Client, raw json.RawMessage) {
	var p QuizRejoinPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" || p.ParticipantID == "" {
		c.SendError("Invalid quiz:rejoin payload")
		return
	}

	if p.ResumeToken != "" {
		claims, err := token.ValidateResumeToken(p.ResumeToken, h.tokenSecret)
		if err != nil || claims.QuizID != p.QuizID || claims.ParticipantID != p.ParticipantID {
			c.SendError("Invalid resume token")
			return
		}
	}

	snap, err := h.registry.RejoinSession(p.QuizID, p.ParticipantID, c.ConnID)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}

	c.UserID = p.ParticipantID
	h.JoinRoom(c, p.QuizID)
	c.SendMessage(EventQuizRejoined, QuizRejoinedPayload{
		QuizID: p.QuizID,
		Quiz:   snap,
	})
	log.Printf("%s rejoined quiz %s on conn %s", p.ParticipantID, p.QuizID, c.ConnID)
}

func (h *Hub) handleQuizStart(c *Client, raw json.RawMessage) {
	var p QuizStartPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" {
		c.SendError("Invalid quiz:start payload")
		return
	}

	snap, err := h.registry.StartSession(p.QuizID, p.HostID)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}

	h.EmitToRoom(p.QuizID, EventQuizStarted, QuizStartedPayload{
		QuizID:         p.QuizID,
		TotalQuestions: snap.NumQuestions,
		Participants:   snap.Participants,
	})
	log.Printf("Quiz %s started with %d participants", p.QuizID, len(snap.Participants))
}

func (h *Hub) handleQuizAnswer(c *Client, raw json.RawMessage) {
	var p QuizAnswerPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" || p.QuestionID == "" {
		c.SendError("Invalid quiz:answer payload")
		return
	}

	res, err := h.grader.Grade(context.Background(), p.QuizID, p.QuestionID, p.Answer)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}

	// Grading result goes to the submitter only.
	c.SendMessage(EventQuizIsCorrect, IsCorrectPayload{
		QuestionID: p.QuestionID,
		IsCorrect:  res.IsCorrect,
	})

	if c.UserID == "" {
		return
	}
	ledger, err := h.registry.Ledger(p.QuizID)
	if err != nil {
		return
	}
	ledger.Append(models.AnswerRecord{
		QuizID:        p.QuizID,
		ParticipantID: c.UserID,
		QuestionIndex: res.QuestionIndex,
		Answer:        p.Answer,
		IsCorrect:     res.IsCorrect,
		TimeSpent:     p.TimeSpent,
	})

	prog, err := h.registry.CompleteAnswer(p.QuizID, res.QuestionIndex)
	if err != nil || !prog.Advanced {
		return
	}
	if prog.Completed {
		h.EmitToRoom(p.QuizID, EventQuizCompleted, QuizCompletedPayload{
			Answers:      ledger.Snapshot(),
			Participants: prog.Session.Participants,
		})
		go h.grader.Invalidate(context.Background(), p.QuizID)
		log.Printf("Quiz %s completed", p.QuizID)
		return
	}
	h.EmitToRoom(p.QuizID, EventNextQuestion, NextQuestionPayload{
		QuestionIndex: prog.NextIndex,
	})
}

func (h *Hub) handleLeaderboard(c *Client, raw json.RawMessage) {
	var p LeaderboardRequestPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" {
		c.SendError("Invalid quiz:leaderboard payload")
		return
	}

	entries, err := h.registry.Leaderboard(p.QuizID)
	if err != nil {
		c.SendError(errorMessage(err))
		return
	}
	c.SendMessage(EventQuizLeaderboard, LeaderboardPayload{Leaderboard: entries})
}

func (h *Hub) handleMessageSent(c *Client, raw json.RawMessage) {
	var p MessageSentPayload
	if err := decode(raw, &p); err != nil || p.QuizID == "" || p.Text == "" {
		c.SendError("Invalid message:sent payload")
		return
	}

	now := time.Now()
	h.EmitToRoom(p.QuizID, EventMessageReceived, MessageReceivedPayload{
		QuizID:      p.QuizID,
		SenderID:    p.SenderID,
		Username:    p.Username,
		Text:        p.Text,
		MessageType: p.MessageType,
		Timestamp:   now.UnixMilli(),
	})

	if h.chats == nil {
		return
	}
	go func() {
		err := h.chats.SaveMessage(context.Background(), &models.ChatMessage{
			QuizID:      p.QuizID,
			SenderID:    p.SenderID,
			Username:    p.Username,
			Message:     p.Text,
			MessageType: p.MessageType,
			SentAt:      now,
		})
		if err != nil {
			log.Printf("Warning: failed to archive chat message for quiz %s: %v", p.QuizID, err)
		}
	}()
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(raw, v)
}

// errorMessage maps coordinator errors to the human-readable text carried by
// quiz:error payloads.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return "Quiz not found"
	case errors.Is(err, session.ErrDuplicateSession):
		return "Quiz already exists"
	case errors.Is(err, session.ErrParticipantNotFound):
		return "Participant not found"
	case errors.Is(err, session.ErrUnauthorized):
		return "Only host can start the quiz"
	case errors.Is(err, session.ErrQuizClosed):
		return "Quiz has already started"
	case errors.Is(err, grading.ErrQuestionNotFound):
		return "Question not found"
	default:
		log.Printf("Handler error: %v", err)
		return "Error processing request"
	}
}
