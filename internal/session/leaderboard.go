package session

import (
	"math"
	"sort"

	"live-service/internal/models"
)

// ComputeLeaderboard seeds one zeroed entry per current participant, folds
// the ledger into the counters, and orders by correct answers descending
// with total time spent as the tie breaker. Pure and deterministic; it can
// be recomputed at any point from ledger plus roster.
func ComputeLeaderboard(participants []Participant, records []models.AnswerRecord) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(participants))
	index := make(map[string]int, len(participants))

	for _, p := range participants {
		index[p.ID] = len(entries)
		entries = append(entries, models.LeaderboardEntry{
			ParticipantID: p.ID,
			Name:          p.Name,
		})
	}

	for _, r := range records {
		i, ok := index[r.ParticipantID]
		if !ok {
			continue
		}
		entries[i].Total++
		if r.IsCorrect {
			entries[i].Correct++
		}
		entries[i].TimeSpent += r.TimeSpent
	}

	for i := range entries {
		if entries[i].Total > 0 {
			accuracy := float64(entries[i].Correct) / float64(entries[i].Total) * 100
			entries[i].Accuracy = math.Round(accuracy*10) / 10
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Correct != entries[j].Correct {
			return entries[i].Correct > entries[j].Correct
		}
		return entries[i].TimeSpent < entries[j].TimeSpent
	})

	return entries
}
