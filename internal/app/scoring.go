package app

import (
	"math"
	"sort"

	"quiz-live-service/internal/domain"
)

// pointUnit is the per-question award: max points split across correct options
// when partial credit is enabled, else max points outright, rounded to two
// decimal places.
func pointUnit(q domain.Question) float64 {
	unit := q.MaxPoints
	if q.PartialPoints {
		correct := 0
		for _, a := range q.Answers {
			if a.Correct {
				correct++
			}
		}
		if correct > 0 {
			unit = q.MaxPoints / float64(correct)
		}
	}
	return math.Round(unit*100) / 100
}

// distributionLocked recomputes the answer spread for one question from
// scratch. Rooms are small, so a full rescan per submission is cheaper than
// keeping counters consistent across overwrites.
func (r *Room) distributionLocked(questionIdx int) map[int64]int {
	dist := make(map[int64]int)
	for _, p := range r.participants {
		if answerID, ok := p.answers[questionIdx]; ok {
			dist[answerID]++
		}
	}
	return dist
}

// leaderboardLocked ranks all members by descending score. The sort is stable
// so ties keep encounter order.
func (r *Room) leaderboardLocked() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(r.participants))
	for _, p := range r.participants {
		entries = append(entries, domain.LeaderboardEntry{ID: p.Token, Name: p.name, Score: p.score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
