package game

import (
	"fmt"

	"pizza-rush/internal/game/spatial"
)

// Leaderboard is the local high-score table for courier runs, backed by a
// skip list for O(log n) rank queries.
//
// Each finished run is scored from deliveries, best streak, and trick
// points. Single process, single player - but rank queries stay cheap even
// with thousands of recorded runs.
type Leaderboard struct {
	skipList *spatial.SkipList
	runSeq   int
}

// RunEntry is one recorded run on the board.
type RunEntry struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// NewLeaderboard creates an empty score board.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{skipList: spatial.NewSkipList()}
}

// RecordRun scores a finished run and inserts it under a generated key.
// Score formula: deliveries dominate, streak and tricks break ties.
func (lb *Leaderboard) RecordRun(deliveries, bestStreak, trickScore int) string {
	lb.runSeq++
	key := fmt.Sprintf("run-%d", lb.runSeq)
	score := float64(deliveries)*1000 + float64(bestStreak)*100 + float64(trickScore)
	lb.skipList.Insert(key, score)
	return key
}

// UpdateScore sets a run's score directly. O(log n).
func (lb *Leaderboard) UpdateScore(key string, score float64) {
	lb.skipList.Insert(key, score)
}

// GetRank returns a run's rank (1 = best), or 0 if not found.
func (lb *Leaderboard) GetRank(key string) int {
	return lb.skipList.GetRank(key)
}

// GetScore returns a run's score.
func (lb *Leaderboard) GetScore(key string) (float64, bool) {
	return lb.skipList.GetScore(key)
}

// GetTop returns the best n runs. O(log n + k).
func (lb *Leaderboard) GetTop(n int) []RunEntry {
	entries := lb.skipList.GetRange(1, n)
	result := make([]RunEntry, len(entries))
	for i, e := range entries {
		result[i] = RunEntry{Key: e.Key, Score: e.Score, Rank: i + 1}
	}
	return result
}

// GetRange returns runs in the rank range (1-indexed, inclusive).
func (lb *Leaderboard) GetRange(start, end int) []RunEntry {
	entries := lb.skipList.GetRange(start, end)
	result := make([]RunEntry, len(entries))
	rank := start
	for i, e := range entries {
		result[i] = RunEntry{Key: e.Key, Score: e.Score, Rank: rank}
		rank++
	}
	return result
}

// Remove deletes a run from the board.
func (lb *Leaderboard) Remove(key string) bool {
	return lb.skipList.Remove(key)
}

// Length returns the number of recorded runs.
func (lb *Leaderboard) Length() int {
	return lb.skipList.Length()
}

// Clear wipes the board.
func (lb *Leaderboard) Clear() {
	lb.skipList.Clear()
}
