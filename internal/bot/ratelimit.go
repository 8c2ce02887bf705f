package bot

import (
	"sync"
	"time"
)

const defaultLimit = 500 * time.Millisecond

// RateLimiter ограничивает частоту действий пользователя в памяти процесса.
// Ключ — команда ("/start") или имя действия из callback ("confirm_payment").
type RateLimiter struct {
	mu       sync.Mutex
	lastCall map[int64]map[string]time.Time
	limits   map[string]time.Duration
	adminID  int64
	now      func() time.Time
}

func NewRateLimiter(adminID int64) *RateLimiter {
	return &RateLimiter{
		lastCall: make(map[int64]map[string]time.Time),
		limits: map[string]time.Duration{
			"/start":          2 * time.Second,
			"/account":        2 * time.Second,
			"/support":        2 * time.Second,
			"account":         2 * time.Second,
			"buy":             time.Second,
			"confirm_payment": 3 * time.Second,
			"set_lang":        2 * time.Second,
		},
		adminID: adminID,
		now:     time.Now,
	}
}

// IsLimited returns true if user is rate-limited for this action
func (r *RateLimiter) IsLimited(userID int64, action string) bool {
	// Админ не лимитируется
	if r.adminID != 0 && userID == r.adminID {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.lastCall[userID] == nil {
		r.lastCall[userID] = make(map[string]time.Time)
	}
	limit, ok := r.limits[action]
	if !ok {
		limit = defaultLimit
	}
	last := r.lastCall[userID][action]
	if now.Sub(last) < limit {
		return true
	}
	r.lastCall[userID][action] = now
	return false
}
