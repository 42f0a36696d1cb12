// Package quota enforces per-user daily character limits tied to
// subscription tier, including free-trial expiry.
package quota

import (
	"fmt"
	"time"

	"github.com/feedtape/tts-service/internal/core"
)

// Default policy values. Limits are daily character budgets; at the fixed
// synthesis throughput they correspond to 20 and 200 minutes of audio.
const (
	DefaultFreeDailyCharacters = 20000
	DefaultProDailyCharacters  = 200000
	DefaultTrialDays           = 7
)

const hoursPerDay = 24

// Policy holds the tier limits and the trial window.
type Policy struct {
	FreeDailyCharacters int
	ProDailyCharacters  int
	TrialDays           int
}

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		FreeDailyCharacters: DefaultFreeDailyCharacters,
		ProDailyCharacters:  DefaultProDailyCharacters,
		TrialDays:           DefaultTrialDays,
	}
}

// Guard decides whether a synthesis request fits within a user's remaining
// quota. It is pure over its inputs; the clock is injectable for tests.
type Guard struct {
	policy Policy
	now    func() time.Time
}

// NewGuard creates a guard over the given policy using the wall clock.
func NewGuard(policy Policy) *Guard {
	return &Guard{
		policy: policy,
		now:    time.Now,
	}
}

// NewGuardWithClock creates a guard with a custom clock.
func NewGuardWithClock(policy Policy, now func() time.Time) *Guard {
	return &Guard{
		policy: policy,
		now:    now,
	}
}

// Check evaluates the quota rules in order: trial expiry first (free tier
// only, rejected regardless of remaining numeric quota), then the tier's
// daily character limit against today's consumption plus the request.
//
// Check runs before any provider call so that quota violations never incur
// synthesis cost.
func (g *Guard) Check(user core.User, usedToday, requestedChars int) error {
	limit, err := g.dailyLimit(user)
	if err != nil {
		return err
	}

	if usedToday+requestedChars > limit {
		return &core.QuotaError{
			Used:      usedToday,
			Limit:     limit,
			Requested: requestedChars,
		}
	}

	return nil
}

// dailyLimit resolves the character limit for the user's tier, enforcing
// trial expiry for the free tier.
func (g *Guard) dailyLimit(user core.User) (int, error) {
	switch user.SubscriptionTier {
	case core.TierPro:
		return g.policy.ProDailyCharacters, nil
	case core.TierFree:
		if g.trialExpired(user) {
			return 0, core.ErrTrialExpired
		}

		return g.policy.FreeDailyCharacters, nil
	default:
		return 0, fmt.Errorf(
			"%w: unknown subscription tier %q",
			core.ErrInternal, user.SubscriptionTier,
		)
	}
}

// trialExpired reports whether the free-trial window has lapsed.
func (g *Guard) trialExpired(user core.User) bool {
	trialWindow := time.Duration(g.policy.TrialDays) * hoursPerDay * time.Hour

	return g.now().Sub(user.TrialStartedAt) >= trialWindow
}
