// Package entitlement decides what an account may use right now. Everything
// here is pure: no I/O, no clock reads.
package entitlement

import (
	"math"
	"time"

	"ai-chatbot-be/internal/entity"
)

// Decision is the result of Decide.
type Decision struct {
	Status        entity.AccessStatus     `json:"status"`
	Tier          entity.SubscriptionTier `json:"tier"`
	HasAccess     bool                    `json:"has_access"`
	DaysRemaining int                     `json:"days_remaining"`
	IsTrialActive bool                    `json:"is_trial_active"`
	Features      FeatureSet              `json:"features"`
}

// EffectiveTier is the tier whose limits apply. Without access that is always
// basic, even when Tier keeps a lapsed paid tier for display.
func (d Decision) EffectiveTier() entity.SubscriptionTier {
	if d.HasAccess {
		return d.Tier
	}
	return entity.TierBasic
}

// Decide maps an account and the current time to an access decision. Rules are
// evaluated in order and the first match wins. A nil or malformed account
// never gets access.
func Decide(account *entity.Account, now time.Time) Decision {
	if account == nil {
		return fallback()
	}

	// 1. paid subscription
	if account.SubscriptionStatus == entity.SubscriptionStatusActive && account.SubscriptionEndsAt != nil {
		if account.SubscriptionEndsAt.After(now) {
			return decision(entity.AccessStatusActive, account.SubscriptionTier, true, daysUntil(*account.SubscriptionEndsAt, now), false)
		}
		return decision(entity.AccessStatusExpired, account.SubscriptionTier, false, 0, false)
	}

	// 2. running trial, always top tier
	if account.SubscriptionStatus == entity.SubscriptionStatusTrial && account.TrialEndsAt != nil && account.TrialEndsAt.After(now) {
		return decision(entity.AccessStatusTrial, entity.TierUltra, true, daysUntil(*account.TrialEndsAt, now), true)
	}

	// 3. never trialled, never paid: may start a trial, gets nothing yet
	if !account.HasUsedTrial && !account.HasPaymentReference() && account.SubscriptionStatus == entity.SubscriptionStatusNone {
		return decision(entity.AccessStatusEligible, entity.TierBasic, false, 0, false)
	}

	// 4. trial used up or lapsed
	if isExhausted(account) {
		return decision(entity.AccessStatusExpired, entity.TierBasic, false, 0, false)
	}

	// 5. anything else is anomalous
	return fallback()
}

func isExhausted(account *entity.Account) bool {
	switch account.SubscriptionStatus {
	case entity.SubscriptionStatusExpired:
		return true
	case entity.SubscriptionStatusTrial:
		// rule 2 already handled a running trial
		return account.TrialEndsAt != nil
	case entity.SubscriptionStatusNone:
		return account.HasUsedTrial || account.HasPaymentReference()
	}
	return false
}

func fallback() Decision {
	return decision(entity.AccessStatusNone, entity.TierBasic, false, 0, false)
}

func decision(status entity.AccessStatus, tier entity.SubscriptionTier, hasAccess bool, days int, trial bool) Decision {
	features := FeaturesFor(entity.TierBasic)
	if hasAccess {
		features = FeaturesFor(tier)
	}
	return Decision{
		Status:        status,
		Tier:          tier,
		HasAccess:     hasAccess,
		DaysRemaining: days,
		IsTrialActive: trial,
		Features:      features,
	}
}

// daysUntil rounds partial days up and never goes negative.
func daysUntil(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
