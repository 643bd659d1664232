package models

import "time"

// QuizDocument is the durable quiz as stored by the quiz service, looked up
// by invite code. Questions are embedded in the document.
type QuizDocument struct {
	ID           string     `json:"id"`
	InviteCode   string     `json:"invite_code"`
	CreatedBy    string     `json:"created_by"`
	NumQuestions int        `json:"num_questions"`
	Questions    []Question `json:"questions"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// AnswerRecord is one graded submission, appended to a session's ledger and
// never mutated afterwards.
type AnswerRecord struct {
	QuizID        string `json:"quiz_id"`
	ParticipantID string `json:"participant_id"`
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"is_correct"`
	TimeSpent     int64  `json:"time_spent"`
}

type LeaderboardEntry struct {
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	TimeSpent     int64   `json:"time_spent"`
	Accuracy      float64 `json:"accuracy"`
}

type ChatMessage struct {
	QuizID      string    `json:"quiz_id"`
	SenderID    string    `json:"sender_id"`
	Username    string    `json:"username"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	SentAt      time.Time `json:"sent_at"`
}
