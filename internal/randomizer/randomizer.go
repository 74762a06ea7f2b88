// Package randomizer produces session-specific, retake-resistant question
// subsets from a certification's full pool, with shuffled answer ordering.
package randomizer

import (
	"math/rand"
	"sync"
	"time"

	"assessment-service/internal/models"
	"assessment-service/internal/pkg/logger"
)

// Config carries the rotation policy knobs. They are policy choices, not
// protocol requirements, so callers set them rather than this package.
type Config struct {
	// SessionMaxAge bounds how long per-session bookkeeping is kept.
	SessionMaxAge time.Duration
	// LowWaterMark is the consumed fraction below which the whole pool
	// stays available, keeping early retakes varied.
	LowWaterMark float64
	// MinRemaining is the smallest unconsumed pool we will select from
	// before resetting the session's consumed set.
	MinRemaining int
}

func DefaultConfig() Config {
	return Config{
		SessionMaxAge: 24 * time.Hour,
		LowWaterMark:  0.2,
		MinRemaining:  30,
	}
}

type sessionPool struct {
	consumed  map[string]struct{}
	createdAt time.Time
}

// Randomizer tracks consumed question ids per session. It owns its maps and
// its random source; construct one per service instance.
type Randomizer struct {
	log *logger.Logger
	cfg Config

	mu       sync.Mutex
	rand     *rand.Rand
	now      func() time.Time
	sessions map[string]*sessionPool
}

func New(log *logger.Logger, cfg Config) *Randomizer {
	return &Randomizer{
		log:      log,
		cfg:      cfg,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sessions: make(map[string]*sessionPool),
	}
}

// NewSeeded fixes the random source and clock; tests assert distributional
// properties against it.
func NewSeeded(log *logger.Logger, cfg Config, seed int64, now func() time.Time) *Randomizer {
	r := New(log, cfg)
	r.rand = rand.New(rand.NewSource(seed))
	if now != nil {
		r.now = now
	}
	return r
}

// SelectForSession picks countWanted questions for the session, honoring a
// 30/50/20 beginner/intermediate/advanced target mix, excludes previously
// consumed questions once the session has seen enough of the pool, and
// records the new selection as consumed.
func (r *Randomizer) SelectForSession(pool []models.Question, sessionID string, countWanted int, shuffleAnswers bool) []models.Question {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleanupLocked()

	available := r.availableLocked(pool, sessionID)
	selected := r.selectBalancedLocked(available, countWanted)

	r.rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	if shuffleAnswers {
		for i, q := range selected {
			answers := append([]models.Answer(nil), q.Answers...)
			r.rand.Shuffle(len(answers), func(a, b int) {
				answers[a], answers[b] = answers[b], answers[a]
			})
			selected[i] = q.WithAnswers(answers)
		}
	}

	sp := r.sessions[sessionID]
	if sp == nil {
		sp = &sessionPool{consumed: make(map[string]struct{}), createdAt: r.now()}
		r.sessions[sessionID] = sp
	}
	for _, q := range selected {
		sp.consumed[q.ID] = struct{}{}
	}

	r.log.Info("selected session questions",
		"session_id", sessionID, "selected", len(selected), "pool", len(pool))
	return selected
}

// availableLocked applies the rotation policy: below the low-water mark the
// full pool stays available; past it consumed questions are excluded; when
// fewer than MinRemaining remain the consumed set resets to avoid starvation.
func (r *Randomizer) availableLocked(pool []models.Question, sessionID string) []models.Question {
	sp := r.sessions[sessionID]
	if sp == nil || len(pool) == 0 {
		return pool
	}

	usage := float64(len(sp.consumed)) / float64(len(pool))
	if usage < r.cfg.LowWaterMark {
		return pool
	}

	available := make([]models.Question, 0, len(pool))
	for _, q := range pool {
		if _, used := sp.consumed[q.ID]; !used {
			available = append(available, q)
		}
	}

	if len(available) < r.cfg.MinRemaining {
		r.log.Info("resetting consumed question pool", "session_id", sessionID)
		sp.consumed = make(map[string]struct{})
		return pool
	}
	return available
}

var difficultyTargets = []struct {
	level models.DifficultyLevel
	share float64
}{
	{models.DifficultyBeginner, 0.3},
	{models.DifficultyIntermediate, 0.5},
	{models.DifficultyAdvanced, 0.2},
}

// selectBalancedLocked samples without replacement per difficulty bucket,
// then backfills any shortfall uniformly from whatever is left.
func (r *Randomizer) selectBalancedLocked(available []models.Question, countWanted int) []models.Question {
	if len(available) <= countWanted {
		return append([]models.Question(nil), available...)
	}

	remaining := append([]models.Question(nil), available...)
	selected := make([]models.Question, 0, countWanted)

	for _, target := range difficultyTargets {
		want := int(float64(countWanted) * target.share)
		bucket := make([]int, 0, len(remaining))
		for i, q := range remaining {
			if q.Difficulty == target.level {
				bucket = append(bucket, i)
			}
		}
		take := min(want, len(bucket))
		if take == 0 {
			continue
		}
		r.rand.Shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
		picked := make(map[int]struct{}, take)
		for _, idx := range bucket[:take] {
			selected = append(selected, remaining[idx])
			picked[idx] = struct{}{}
		}
		next := remaining[:0]
		for i, q := range remaining {
			if _, ok := picked[i]; !ok {
				next = append(next, q)
			}
		}
		remaining = next
	}

	needed := countWanted - len(selected)
	if needed > 0 && len(remaining) > 0 {
		r.rand.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
		if needed > len(remaining) {
			needed = len(remaining)
		}
		selected = append(selected, remaining[:needed]...)
	}
	return selected
}

// cleanupLocked drops bookkeeping older than SessionMaxAge.
func (r *Randomizer) cleanupLocked() {
	cutoff := r.now().Add(-r.cfg.SessionMaxAge)
	removed := 0
	for id, sp := range r.sessions {
		if sp.createdAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info("cleaned up stale session pools", "removed", removed)
	}
}

// SessionStats reports question usage for one session.
type SessionStats struct {
	SessionID            string     `json:"session_id"`
	QuestionsUsed        int        `json:"questions_used"`
	SessionCreated       *time.Time `json:"session_created,omitempty"`
	TotalSessionsTracked int        `json:"total_sessions_tracked"`
}

func (r *Randomizer) Stats(sessionID string) SessionStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := SessionStats{
		SessionID:            sessionID,
		TotalSessionsTracked: len(r.sessions),
	}
	if sp := r.sessions[sessionID]; sp != nil {
		stats.QuestionsUsed = len(sp.consumed)
		created := sp.createdAt
		stats.SessionCreated = &created
	}
	return stats
}

// Forget removes a session's bookkeeping; used when a session ends.
func (r *Randomizer) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
