package engine

import "time"

// Decision is the outcome of TryConsume. RetryAfter is set when denied.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// LimiterState is the persisted part of a RollRateLimiter. A zero WindowEnd
// means no cooldown is running.
type LimiterState struct {
	ActionsUsed int       `json:"actions_used"`
	WindowEnd   time.Time `json:"window_end"`
}

// RollRateLimiter allows maxActions actions, then blocks until window has
// passed since the action that filled the quota. Earlier actions do not start
// the clock.
type RollRateLimiter struct {
	maxActions int
	window     time.Duration
	state      LimiterState
}

func NewRollRateLimiter(maxActions int, window time.Duration) (*RollRateLimiter, error) {
	if maxActions < 1 {
		return nil, newError(CodeInvalidConfiguration, "max actions must be at least 1, got %d", maxActions)
	}
	if window <= 0 {
		return nil, newError(CodeInvalidConfiguration, "window must be positive, got %s", window)
	}
	return &RollRateLimiter{maxActions: maxActions, window: window}, nil
}

// RestoreRollRateLimiter rebuilds a limiter from saved state.
func RestoreRollRateLimiter(maxActions int, window time.Duration, state LimiterState) (*RollRateLimiter, error) {
	l, err := NewRollRateLimiter(maxActions, window)
	if err != nil {
		return nil, err
	}
	if state.ActionsUsed < 0 || state.ActionsUsed > maxActions {
		return nil, newError(CodeInvalidConfiguration, "actions used %d outside [0, %d]", state.ActionsUsed, maxActions)
	}
	if state.ActionsUsed == maxActions && state.WindowEnd.IsZero() {
		return nil, newError(CodeInvalidConfiguration, "exhausted quota without a window end")
	}
	l.state = state
	return l, nil
}

func (l *RollRateLimiter) MaxActions() int { return l.maxActions }

func (l *RollRateLimiter) Window() time.Duration { return l.window }

func (l *RollRateLimiter) State() LimiterState { return l.state }

// Check reports what TryConsume would decide at now without using an action.
func (l *RollRateLimiter) Check(now time.Time) Decision {
	l.expire(now)
	if l.state.ActionsUsed >= l.maxActions {
		return Decision{RetryAfter: l.state.WindowEnd.Sub(now)}
	}
	return Decision{Allowed: true}
}

func (l *RollRateLimiter) TryConsume(now time.Time) Decision {
	if d := l.Check(now); !d.Allowed {
		return d
	}

	l.state.ActionsUsed++
	if l.state.ActionsUsed == l.maxActions {
		l.state.WindowEnd = now.Add(l.window)
	}
	return Decision{Allowed: true}
}

func (l *RollRateLimiter) Remaining(now time.Time) int {
	l.expire(now)
	return l.maxActions - l.state.ActionsUsed
}

func (l *RollRateLimiter) TimeUntilReset(now time.Time) time.Duration {
	if l.state.WindowEnd.IsZero() {
		return 0
	}
	if d := l.state.WindowEnd.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Pending reports whether state still counts against the quota at now.
func (s LimiterState) Pending(now time.Time) bool {
	if s.ActionsUsed == 0 {
		return false
	}
	return s.WindowEnd.IsZero() || now.Before(s.WindowEnd)
}

// expire clears the quota once the cooldown has elapsed.
func (l *RollRateLimiter) expire(now time.Time) {
	if !l.state.WindowEnd.IsZero() && !now.Before(l.state.WindowEnd) {
		l.state = LimiterState{}
	}
}
