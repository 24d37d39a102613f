package scoring

import (
	"context"
	"errors"
	"testing"

	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	scores classifier.Scores
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ []string) (classifier.Scores, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func newTestEngine(t *testing.T, cls classifier.IntentClassifier) *Engine {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	return NewEngine(cfg, cls, logger.NewTestLogger(t))
}

func TestEngine_QualifyLead(t *testing.T) {
	tests := []struct {
		name           string
		highIntentProb float64
		input          LeadInput
		expectedScore  float64
		expectedTier   string
	}{
		{
			name:           "hot lead in home market",
			highIntentProb: 0.9,
			input: LeadInput{
				Name:      "Jane Buyer",
				Email:     "jane@example.com",
				Inquiry:   "We are relocating and need to close on a house right away",
				Budget:    650000.0,
				Location:  "Saint Johns, FL 32259",
				Timeframe: "ASAP",
			},
			expectedScore: 0.96, // 0.4*0.9 + 0.3*1.0 + 0.2*1.0 + 0.1*1.0
			expectedTier:  TierHigh,
		},
		{
			name:           "cold out-of-state browser",
			highIntentProb: 0.2,
			input: LeadInput{
				Name:      "Sam Browser",
				Email:     "sam@example.com",
				Inquiry:   "Just curious about the area",
				Budget:    100000.0,
				Location:  "Texas",
				Timeframe: "next year",
			},
			expectedScore: 0.24, // 0.4*0.2 + 0.3*0.2 + 0.2*0.3 + 0.1*0.4
			expectedTier:  TierLow,
		},
		{
			name:           "mid-budget regional lead",
			highIntentProb: 0.5,
			input: LeadInput{
				Inquiry:   "Looking for a family home",
				Budget:    450000.0,
				Location:  "Orlando, Florida",
				Timeframe: "within a month",
			},
			expectedScore: 0.65, // 0.4*0.5 + 0.3*0.8 + 0.2*0.7 + 0.1*0.7
			expectedTier:  TierMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &stubClassifier{scores: classifier.Scores{
				"high_intent":   tt.highIntentProb,
				"medium_intent": (1 - tt.highIntentProb) / 2,
				"low_intent":    (1 - tt.highIntentProb) / 2,
			}}
			engine := newTestEngine(t, cls)

			result, err := engine.QualifyLead(context.Background(), tt.input)
			require.NoError(t, err)

			assert.InDelta(t, tt.expectedScore, result.FinalScore, 1e-9)
			assert.Equal(t, tt.expectedTier, result.Tier)
			assert.Empty(t, result.Advisories)
		})
	}
}

func TestEngine_QualifyLead_TierBoundaries(t *testing.T) {
	// Isolate the tier thresholds by putting all weight on intent.
	cfg := DefaultConfig()
	cfg.Weights = Weights{Intent: 1.0}

	tests := []struct {
		name         string
		prob         float64
		expectedTier string
	}{
		{"exactly at high cutoff", 0.7, TierHigh},
		{"just below high cutoff", 0.69, TierMedium},
		{"exactly at medium cutoff", 0.4, TierMedium},
		{"just below medium cutoff", 0.39, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &stubClassifier{scores: classifier.Scores{"high_intent": tt.prob}}
			engine := NewEngine(cfg, cls, logger.NewTestLogger(t))

			result, err := engine.QualifyLead(context.Background(), LeadInput{Inquiry: "boundary"})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTier, result.Tier)
		})
	}
}

func TestEngine_QualifyLead_ClassifierFallback(t *testing.T) {
	cls := &stubClassifier{err: classifier.ErrClassifyFailed}
	engine := newTestEngine(t, cls)

	result, err := engine.QualifyLead(context.Background(), LeadInput{
		Inquiry:   "Need to buy immediately",
		Budget:    700000.0,
		Location:  "32259",
		Timeframe: "now",
	})
	require.NoError(t, err, "classifier outage must not abort the lead")

	assert.InDelta(t, 0.3, result.Breakdown.IntentScore, 1e-9)
	// 0.4*0.3 + 0.3*1.0 + 0.2*1.0 + 0.1*1.0
	assert.InDelta(t, 0.72, result.FinalScore, 1e-9)
	require.Len(t, result.Advisories, 1)
	assert.Equal(t, AdvisoryClassifierUnavailable, result.Advisories[0].Code)
}

func TestEngine_ScoreBudget_Bands(t *testing.T) {
	tests := []struct {
		name          string
		budget        interface{}
		expectedScore float64
		advisoryCode  string
	}{
		{"top band lower edge", 600000.0, 1.0, ""},
		{"just below top band", 599999.99, 0.8, ""},
		{"middle band lower edge", 400000.0, 0.8, ""},
		{"lower band lower edge", 200000.0, 0.5, ""},
		{"below all bands", 199999.0, 0.2, ""},
		{"numeric string", "250000", 0.5, ""},
		{"numeric string with spaces", "  600000  ", 1.0, ""},
		{"integer", 450000, 0.8, ""},
		{"currency string", "$450,000", 0.8, ""},
		{"currency string with cents", "$650,000.00", 1.0, ""},
		{"non-numeric string", "about half a million", 0.2, AdvisoryInvalidBudget},
		{"empty string", "", 0.2, AdvisoryInvalidBudget},
		{"nil budget", nil, 0.2, AdvisoryInvalidBudget},
	}

	engine := newTestEngine(t, &stubClassifier{scores: classifier.Scores{"high_intent": 0.5}})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, adv := engine.scoreBudget(tt.budget)
			assert.InDelta(t, tt.expectedScore, score, 1e-9)
			if tt.advisoryCode == "" {
				assert.Nil(t, adv)
			} else {
				require.NotNil(t, adv)
				assert.Equal(t, tt.advisoryCode, adv.Code)
			}
		})
	}
}

func TestEngine_ScoreLocation(t *testing.T) {
	tests := []struct {
		location string
		expected float64
	}{
		{"32259", 1.0},
		{"Saint Johns County", 1.0},
		{"ST JOHNS", 1.0},
		{"moving to saint johns florida", 1.0}, // home tokens win over region tokens
		{"Jacksonville, Florida", 0.7},
		{"Miami FL", 0.7},
		{"Austin, Texas", 0.3},
		{"", 0.3},
	}

	engine := newTestEngine(t, &stubClassifier{scores: classifier.Scores{"high_intent": 0.5}})

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.InDelta(t, tt.expected, engine.scoreLocation(tt.location), 1e-9)
		})
	}
}

func TestEngine_ScoreTimeframe(t *testing.T) {
	tests := []struct {
		timeframe string
		expected  float64
	}{
		{"immediately", 1.0},
		{"ASAP", 1.0},
		{"right now", 1.0},
		{"within a month", 0.7},
		{"soon", 0.7},
		{"in 6-12 months", 0.7}, // "month" substring matches near-term
		{"next year", 0.4},
		{"", 0.4},
	}

	engine := newTestEngine(t, &stubClassifier{scores: classifier.Scores{"high_intent": 0.5}})

	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			assert.InDelta(t, tt.expected, engine.scoreTimeframe(tt.timeframe), 1e-9)
		})
	}
}

func TestEngine_QualifyLead_Idempotent(t *testing.T) {
	cls := &stubClassifier{scores: classifier.Scores{"high_intent": 0.42}}
	engine := newTestEngine(t, cls)

	input := LeadInput{
		Inquiry:   "Interested in a townhouse",
		Budget:    "325000",
		Location:  "St Johns",
		Timeframe: "soon",
	}

	first, err := engine.QualifyLead(context.Background(), input)
	require.NoError(t, err)
	second, err := engine.QualifyLead(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cls.calls)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weights.Intent = 0.5
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sum to 1.0")
	})

	t.Run("target label must be a candidate", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TargetLabel = "hot"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bands must be sorted descending", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BudgetBands = []BudgetBand{{Min: 200000, Score: 0.5}, {Min: 600000, Score: 1.0}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("high threshold above medium", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tiers = TierThresholds{High: 0.4, Medium: 0.7}
		assert.Error(t, cfg.Validate())
	})
}

func TestEngine_ScoreIntent_UsesTargetLabel(t *testing.T) {
	cls := &stubClassifier{scores: classifier.Scores{
		"high_intent":   0.15,
		"medium_intent": 0.6,
		"low_intent":    0.25,
	}}
	engine := newTestEngine(t, cls)

	result, err := engine.QualifyLead(context.Background(), LeadInput{Inquiry: "thinking about it"})
	require.NoError(t, err)
	assert.InDelta(t, 0.15, result.Breakdown.IntentScore, 1e-9)
}

func TestEngine_QualifyLead_MultipleAdvisories(t *testing.T) {
	cls := &stubClassifier{err: errors.New("connection refused")}
	engine := newTestEngine(t, cls)

	result, err := engine.QualifyLead(context.Background(), LeadInput{
		Inquiry: "hello",
		Budget:  "TBD",
	})
	require.NoError(t, err)
	require.Len(t, result.Advisories, 2)
	assert.Equal(t, AdvisoryClassifierUnavailable, result.Advisories[0].Code)
	assert.Equal(t, AdvisoryInvalidBudget, result.Advisories[1].Code)
}
