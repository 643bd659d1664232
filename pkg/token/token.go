package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ResumeTokenDuration = 24 * time.Hour

// Claims bind a resume token to one participant in one quiz session. The
// token is issued on join and may be presented on rejoin instead of relying
// on raw connection identity alone.
type Claims struct {
	QuizID        string `json:"quiz_id"`
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

func GenerateResumeToken(quizID, participantID, secret string) (string, error) {
	claims := &Claims{
		QuizID:        quizID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ResumeTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign resume token: %w", err)
	}
	return signed, nil
}

func ValidateResumeToken(tokenString, secret string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse resume token: %w", err)
	}

	if claims, ok := t.Claims.(*Claims); ok && t.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid resume token")
}
