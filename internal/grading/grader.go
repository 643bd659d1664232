package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"live-service/internal/models"
	"live-service/internal/session"
	"live-service/pkg/cache"
)

var ErrQuestionNotFound = errors.New("question not found")

const quizCacheTTL = 1 * time.Hour

// QuizStore is the slice of the durable quiz store the grader needs.
type QuizStore interface {
	FindByInviteCode(ctx context.Context, inviteCode string) (*models.QuizDocument, error)
}

// Grader resolves submitted answers against the quiz document behind an
// invite code. Grading is a pure read-and-compare; it never mutates session
// state.
type Grader struct {
	store QuizStore
	cache *cache.RedisClient
}

func NewGrader(store QuizStore, redisClient *cache.RedisClient) *Grader {
	return &Grader{
		store: store,
		cache: redisClient,
	}
}

type Result struct {
	QuestionIndex int
	IsCorrect     bool
}

// Grade compares the submitted answer against the correct option of the
// matching embedded question. The comparison is an exact, case-sensitive
// string match.
func (g *Grader) Grade(ctx context.Context, inviteCode, questionID, answer string) (Result, error) {
	doc, err := g.Lookup(ctx, inviteCode)
	if err != nil {
		return Result{}, err
	}

	for i, q := range doc.Questions {
		if q.ID != questionID {
			continue
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			return Result{}, fmt.Errorf("quiz %s question %s has no valid correct option", doc.ID, q.ID)
		}
		return Result{
			QuestionIndex: i,
			IsCorrect:     answer == q.Options[q.CorrectAnswerIndex],
		}, nil
	}
	return Result{}, ErrQuestionNotFound
}

// Invalidate drops the cached document for an invite code. Sessions call it
// when they complete, so a code reused for a fresh document is not served
// stale questions.
func (g *Grader) Invalidate(ctx context.Context, inviteCode string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Delete(ctx, quizCacheKey(inviteCode)); err != nil {
		log.Printf("Failed to drop cached quiz %s: %v", inviteCode, err)
	}
}

func quizCacheKey(inviteCode string) string {
	return fmt.Sprintf("quiz:%s:data", inviteCode)
}

// Lookup resolves a quiz document by invite code, going through the Redis
// cache when one is configured. A quiz being played does not change, so the
// cached copy is safe for the lifetime of a session.
func (g *Grader) Lookup(ctx context.Context, inviteCode string) (*models.QuizDocument, error) {
	key := quizCacheKey(inviteCode)

	if g.cache != nil {
		if jsonData, err := g.cache.Get(ctx, key); err == nil {
			var doc models.QuizDocument
			if err := json.Unmarshal([]byte(jsonData), &doc); err == nil {
				return &doc, nil
			}
		}
	}

	doc, err := g.store.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, session.ErrSessionNotFound
	}

	if g.cache != nil {
		jsonData, err := json.Marshal(doc)
		if err == nil {
			if err := g.cache.Set(ctx, key, string(jsonData), quizCacheTTL); err != nil {
				log.Printf("Failed to cache quiz %s: %v", inviteCode, err)
			}
		}
	}
	return doc, nil
}
