package entitlement

import "ai-chatbot-be/internal/entity"

// Unlimited is the sentinel used by every limit in this package.
const Unlimited int64 = -1

// FeatureSet is what a tier unlocks in the widget and the quotas attached to it.
type FeatureSet struct {
	CustomBotName       bool  `json:"custom_bot_name"`
	CustomGreeting      bool  `json:"custom_greeting"`
	CustomColor         bool  `json:"custom_color"`
	CustomLogo          bool  `json:"custom_logo"`
	CustomTheme         bool  `json:"custom_theme"`
	CustomCSS           bool  `json:"custom_css"`
	MonthlyMessageLimit int64 `json:"monthly_message_limit"`
	MaxDocuments        int64 `json:"max_documents"`
}

// FeaturesFor is a pure function of the tier. Unknown tiers get the most
// restrictive set.
func FeaturesFor(tier entity.SubscriptionTier) FeatureSet {
	switch tier {
	case entity.TierUltra:
		return FeatureSet{
			CustomBotName:       true,
			CustomGreeting:      true,
			CustomColor:         true,
			CustomLogo:          true,
			CustomTheme:         true,
			CustomCSS:           true,
			MonthlyMessageLimit: MonthlyMessageLimit(tier),
			MaxDocuments:        MaxDocuments(tier),
		}
	case entity.TierPro:
		return FeatureSet{
			CustomBotName:       true,
			CustomGreeting:      true,
			MonthlyMessageLimit: MonthlyMessageLimit(tier),
			MaxDocuments:        MaxDocuments(tier),
		}
	default:
		return FeatureSet{
			MonthlyMessageLimit: MonthlyMessageLimit(tier),
			MaxDocuments:        MaxDocuments(tier),
		}
	}
}

// MonthlyMessageLimit returns the conversation cap per calendar month.
// Unrecognized tiers fail conservative.
func MonthlyMessageLimit(tier entity.SubscriptionTier) int64 {
	switch tier {
	case entity.TierUltra, entity.TierPro:
		return Unlimited
	case entity.TierBasic:
		return 1000
	default:
		return 10
	}
}

// MaxDocuments returns how many knowledge documents a workspace may hold.
func MaxDocuments(tier entity.SubscriptionTier) int64 {
	switch tier {
	case entity.TierUltra:
		return Unlimited
	case entity.TierPro:
		return 100
	case entity.TierBasic:
		return 10
	default:
		return 1
	}
}

// TierRank orders tiers so activation never lowers one.
func TierRank(tier entity.SubscriptionTier) int {
	switch tier {
	case entity.TierUltra:
		return 3
	case entity.TierPro:
		return 2
	case entity.TierBasic:
		return 1
	}
	return 0
}

// Within reports whether current usage is below limit.
func Within(current, limit int64) bool {
	return limit == Unlimited || current < limit
}
