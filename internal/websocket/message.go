package websocket

import (
	"encoding/json"

	"live-service/internal/models"
	"live-service/internal/session"
)

type EventType string

const (
	// Client -> Server
	EventUserJoin        EventType = "user:join"
	EventQuizCreate      EventType = "quiz:create"
	EventQuizJoin        EventType = "quiz:join"
	EventQuizRejoin      EventType = "quiz:rejoin"
	EventQuizStart       EventType = "quiz:start"
	EventQuizAnswer      EventType = "quiz:answer"
	EventQuizLeaderboard EventType = "quiz:leaderboard"
	EventMessageSent     EventType = "message:sent"

	// Server -> Client
	EventQuizCreated       EventType = "quiz:created"
	EventQuizJoined        EventType = "quiz:joined"
	EventQuizRejoined      EventType = "quiz:rejoined"
	EventQuizStarted       EventType = "quiz:started"
	EventQuizIsCorrect     EventType = "quiz:isCorrect"
	EventParticipantJoined EventType = "quiz:participant_joined"
	EventParticipantLeft   EventType = "quiz:participant_left"
	EventHostLeft          EventType = "quiz:host_left"
	EventNextQuestion      EventType = "quiz:next_question"
	EventQuizCompleted     EventType = "quiz:completed"
	EventMessageReceived   EventType = "message:received"
	EventQuizError         EventType = "quiz:error"
)

// Message is the inbound wire envelope. Payloads stay raw until the handler
// for the event type decodes them into their tagged struct.
type Message struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type envelope struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

type UserJoinPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type QuizCreatePayload struct {
	QuizID       string `json:"quizId"`
	HostID       string `json:"hostId"`
	HostName     string `json:"hostName"`
	NumQuestions int    `json:"numQuestions"`
}

type QuizJoinPayload struct {
	QuizID          string `json:"quizId"`
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
}

type QuizRejoinPayload struct {
	QuizID        string `json:"quizId"`
	ParticipantID string `json:"participantId"`
	ResumeToken   string `json:"resumeToken,omitempty"`
}

type QuizStartPayload struct {
	QuizID string `json:"quizId"`
	HostID string `json:"hostId"`
}

type QuizAnswerPayload struct {
	QuizID     string `json:"quizId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	TimeSpent  int64  `json:"timeSpent"`
}

type LeaderboardRequestPayload struct {
	QuizID string `json:"quizId"`
}

type MessageSentPayload struct {
	QuizID      string `json:"quizId"`
	SenderID    string `json:"senderId"`
	Username    string `json:"username"`
	Text        string `json:"text"`
	MessageType string `json:"messageType"`
}

type QuizCreatedPayload struct {
	QuizID  string           `json:"quizId"`
	Message string           `json:"message"`
	Quiz    session.Snapshot `json:"quiz"`
}

type QuizJoinedPayload struct {
	QuizID      string           `json:"quizId"`
	Quiz        session.Snapshot `json:"quiz"`
	ResumeToken string           `json:"resumeToken,omitempty"`
}

type QuizRejoinedPayload struct {
	QuizID string           `json:"quizId"`
	Quiz   session.Snapshot `json:"quiz"`
}

type QuizStartedPayload struct {
	QuizID         string                `json:"quizId"`
	TotalQuestions int                   `json:"totalQuestions"`
	Participants   []session.Participant `json:"participants"`
}

type IsCorrectPayload struct {
	QuestionID string `json:"questionId"`
	IsCorrect  bool   `json:"isCorrect"`
}

type ParticipantJoinedPayload struct {
	ParticipantID     string                `json:"participantId"`
	ParticipantName   string                `json:"participantName"`
	Participants      []session.Participant `json:"participants"`
	TotalParticipants int                   `json:"totalParticipants"`
}

type ParticipantLeftPayload struct {
	ParticipantID     string                `json:"participantId"`
	ParticipantName   string                `json:"participantName"`
	Participants      []session.Participant `json:"participants"`
	TotalParticipants int                   `json:"totalParticipants"`
}

type HostLeftPayload struct {
	Message string `json:"message"`
}

type NextQuestionPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

type QuizCompletedPayload struct {
	Answers      []models.AnswerRecord `json:"answers"`
	Participants []session.Participant `json:"participants"`
}

type LeaderboardPayload struct {
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
}

type MessageReceivedPayload struct {
	QuizID      string `json:"quizId"`
	SenderID    string `json:"senderId"`
	Username    string `json:"username"`
	Text        string `json:"text"`
	MessageType string `json:"messageType"`
	Timestamp   int64  `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
