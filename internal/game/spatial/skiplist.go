// Skip list with augmented span counts for O(log n) rank queries.
// Backs the courier score leaderboard: best delivery streaks and trick
// totals, ranked highest-first.
//
// Origin: Pugh (1990), "Skip Lists: A Probabilistic Alternative to
// Balanced Trees". Redis ZSET uses the same span-count trick.
package spatial

import (
	"math/rand"
	"sync"
)

const (
	maxLevel         = 32   // Supports 2^32 entries
	levelProbability = 0.25 // Geometric level distribution
)

// ScoreEntry is a scored leaderboard entry.
type ScoreEntry struct {
	Key   string  // Courier/session identifier
	Score float64
}

type skipNode struct {
	entry ScoreEntry
	next  []*skipNode
	span  []int // Distance to next node at each level
}

// SkipList is a score-ordered list (highest score ranks first) with
// O(log n) insert, remove and rank lookup.
type SkipList struct {
	head   *skipNode
	level  int
	length int
	mu     sync.RWMutex
	rng    *rand.Rand
}

// NewSkipList creates an empty skip list.
func NewSkipList() *SkipList {
	return &SkipList{
		head: &skipNode{
			next: make([]*skipNode, maxLevel),
			span: make([]int, maxLevel),
		},
		level: 1,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Insert adds or updates an entry. An existing key is removed first so it
// repositions under its new score.
func (sl *SkipList) Insert(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.removeLocked(key)
	sl.insertLocked(key, score)
}

func (sl *SkipList) insertLocked(key string, score float64) {
	update := make([]*skipNode, maxLevel)
	rank := make([]int, maxLevel)

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		// Descending by score; key breaks ties for a stable order
		for x.next[i] != nil && (x.next[i].entry.Score > score ||
			(x.next[i].entry.Score == score && x.next[i].entry.Key < key)) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	newLevel := sl.randomLevel()
	if newLevel > sl.level {
		for i := sl.level; i < newLevel; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = newLevel
	}

	node := &skipNode{
		entry: ScoreEntry{Key: key, Score: score},
		next:  make([]*skipNode, newLevel),
		span:  make([]int, newLevel),
	}

	for i := 0; i < newLevel; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
		node.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = (rank[0] - rank[i]) + 1
	}

	for i := newLevel; i < sl.level; i++ {
		update[i].span[i]++
	}

	sl.length++
}

// Remove deletes an entry by key. Returns false if the key is absent.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.removeLocked(key)
}

func (sl *SkipList) removeLocked(key string) bool {
	// Key lookup requires a full walk of level 0 because ordering is by
	// score, not key. Entry counts here are small (couriers, not players
	// of an MMO), so this stays cheap.
	score, ok := sl.scoreLocked(key)
	if !ok {
		return false
	}

	update := make([]*skipNode, maxLevel)
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && (x.next[i].entry.Score > score ||
			(x.next[i].entry.Score == score && x.next[i].entry.Key < key)) {
			x = x.next[i]
		}
		update[i] = x
	}

	target := x.next[0]
	if target == nil || target.entry.Key != key {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == target {
			update[i].span[i] += target.span[i] - 1
			update[i].next[i] = target.next[i]
		} else {
			update[i].span[i]--
		}
	}

	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	return true
}

// GetRank returns a key's rank (1-indexed, 1 = highest score), 0 if absent.
func (sl *SkipList) GetRank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	score, ok := sl.scoreLocked(key)
	if !ok {
		return 0
	}

	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && (x.next[i].entry.Score > score ||
			(x.next[i].entry.Score == score && x.next[i].entry.Key <= key)) {
			rank += x.span[i]
			x = x.next[i]
			if x.entry.Key == key {
				return rank
			}
		}
	}
	return 0
}

// GetScore returns the score for a key.
func (sl *SkipList) GetScore(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.scoreLocked(key)
}

func (sl *SkipList) scoreLocked(key string) (float64, bool) {
	for x := sl.head.next[0]; x != nil; x = x.next[0] {
		if x.entry.Key == key {
			return x.entry.Score, true
		}
	}
	return 0, false
}

// GetRange returns entries in rank range [start, end], 1-indexed inclusive.
func (sl *SkipList) GetRange(start, end int) []ScoreEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start <= 0 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	result := make([]ScoreEntry, 0, end-start+1)
	traversed := 0
	x := sl.head

	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}

	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		if traversed >= start {
			result = append(result, x.entry)
		}
	}

	return result
}

// Length returns the number of entries.
func (sl *SkipList) Length() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.length
}

// Clear removes all entries.
func (sl *SkipList) Clear() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for i := range sl.head.next {
		sl.head.next[i] = nil
		sl.head.span[i] = 0
	}
	sl.level = 1
	sl.length = 0
}
