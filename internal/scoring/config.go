// internal/scoring/config.go
package scoring

import (
	"fmt"
	"math"
)

// Tier labels returned by the engine.
const (
	TierHigh   = "High Intent"
	TierMedium = "Medium Intent"
	TierLow    = "Low Intent"
)

// Weights holds the contribution of each dimension to the final score.
// They must sum to 1.0.
type Weights struct {
	Intent    float64 `mapstructure:"intent" json:"intent"`
	Budget    float64 `mapstructure:"budget" json:"budget"`
	Location  float64 `mapstructure:"location" json:"location"`
	Timeframe float64 `mapstructure:"timeframe" json:"timeframe"`
}

// BudgetBand maps a minimum budget to a score. Bands are evaluated in
// order, so they must be sorted by Min descending.
type BudgetBand struct {
	Min   float64 `mapstructure:"min" json:"min"`
	Score float64 `mapstructure:"score" json:"score"`
}

// LocationRules holds the token sets for location affinity matching.
type LocationRules struct {
	HomeTokens   []string `mapstructure:"home_tokens"`
	HomeScore    float64  `mapstructure:"home_score"`
	RegionTokens []string `mapstructure:"region_tokens"`
	RegionScore  float64  `mapstructure:"region_score"`
	BaseScore    float64  `mapstructure:"base_score"`
}

// TimeframeRules holds the token sets for purchase urgency matching.
type TimeframeRules struct {
	UrgentTokens   []string `mapstructure:"urgent_tokens"`
	UrgentScore    float64  `mapstructure:"urgent_score"`
	NearTermTokens []string `mapstructure:"near_term_tokens"`
	NearTermScore  float64  `mapstructure:"near_term_score"`
	BaseScore      float64  `mapstructure:"base_score"`
}

// TierThresholds holds the final-score cutoffs for intent tiers.
type TierThresholds struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// Config holds every band, token set, weight and threshold the engine
// uses. Market affinity lives here as data, not in code.
type Config struct {
	Weights             Weights        `mapstructure:"weights"`
	IntentLabels        []string       `mapstructure:"intent_labels"`
	TargetLabel         string         `mapstructure:"target_label"`
	FallbackIntentScore float64        `mapstructure:"fallback_intent_score"`
	BudgetBands         []BudgetBand   `mapstructure:"budget_bands"`
	BudgetFloorScore    float64        `mapstructure:"budget_floor_score"`
	Location            LocationRules  `mapstructure:"location"`
	Timeframe           TimeframeRules `mapstructure:"timeframe"`
	Tiers               TierThresholds `mapstructure:"tiers"`
}

// DefaultConfig returns the Saint Johns / 32259 market configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Intent:    0.4,
			Budget:    0.3,
			Location:  0.2,
			Timeframe: 0.1,
		},
		IntentLabels:        []string{"high_intent", "medium_intent", "low_intent"},
		TargetLabel:         "high_intent",
		FallbackIntentScore: 0.3,
		BudgetBands: []BudgetBand{
			{Min: 600000, Score: 1.0},
			{Min: 400000, Score: 0.8},
			{Min: 200000, Score: 0.5},
		},
		BudgetFloorScore: 0.2,
		Location: LocationRules{
			HomeTokens:   []string{"32259", "saint johns", "st johns"},
			HomeScore:    1.0,
			RegionTokens: []string{"florida", "fl"},
			RegionScore:  0.7,
			BaseScore:    0.3,
		},
		Timeframe: TimeframeRules{
			UrgentTokens:   []string{"immediately", "asap", "now"},
			UrgentScore:    1.0,
			NearTermTokens: []string{"month", "soon"},
			NearTermScore:  0.7,
			BaseScore:      0.4,
		},
		Tiers: TierThresholds{
			High:   0.7,
			Medium: 0.4,
		},
	}
}

// Validate checks internal consistency of the scoring configuration.
func (c *Config) Validate() error {
	sum := c.Weights.Intent + c.Weights.Budget + c.Weights.Location + c.Weights.Timeframe
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}

	if len(c.IntentLabels) == 0 {
		return fmt.Errorf("scoring.intent_labels must not be empty")
	}
	found := false
	for _, l := range c.IntentLabels {
		if l == c.TargetLabel {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("scoring.target_label %q must be one of intent_labels", c.TargetLabel)
	}

	for i := 1; i < len(c.BudgetBands); i++ {
		if c.BudgetBands[i].Min >= c.BudgetBands[i-1].Min {
			return fmt.Errorf("scoring.budget_bands must be sorted by min descending")
		}
	}

	if c.Tiers.High <= c.Tiers.Medium {
		return fmt.Errorf("scoring.tiers.high (%v) must be greater than tiers.medium (%v)", c.Tiers.High, c.Tiers.Medium)
	}

	return nil
}
