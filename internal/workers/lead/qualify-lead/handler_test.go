// internal/workers/lead/qualify-lead/handler_test.go
package qualifylead

import (
	"context"
	"errors"
	"testing"
	"time"

	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubClassifier struct {
	scores classifier.Scores
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, text string, labels []string) (classifier.Scores, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

func newTestHandler(t *testing.T, cls *stubClassifier) *Handler {
	cfg := scoring.DefaultConfig()
	require.NoError(t, cfg.Validate())
	engine := scoring.NewEngine(cfg, cls, logger.NewTestLogger(t))
	return NewHandler(createTestConfig(), engine, logger.NewTestLogger(t))
}

func hotLeadInput() *Input {
	return &Input{
		Name:      "Maria Alvarez",
		Email:     "maria@example.com",
		Inquiry:   "Looking to buy a 4 bedroom home as soon as possible",
		Budget:    650000,
		Location:  "Saint Johns, FL 32259",
		Timeframe: "ASAP",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_HotLead(t *testing.T) {
	handler := newTestHandler(t, &stubClassifier{
		scores: map[string]float64{"high_intent": 0.9, "medium_intent": 0.07, "low_intent": 0.03},
	})

	output, err := handler.Execute(context.Background(), hotLeadInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	// 0.4*0.9 + 0.3*1.0 + 0.2*1.0 + 0.1*1.0 = 0.96
	assert.InDelta(t, 0.96, output.Score, 1e-9)
	assert.Equal(t, "High Intent", output.Intent)
	assert.Empty(t, output.Advisories)
	assert.NotEmpty(t, output.QualifiedAt)

	_, parseErr := time.Parse(time.RFC3339, output.QualifiedAt)
	assert.NoError(t, parseErr)
}

func TestHandler_Execute_ColdLead(t *testing.T) {
	handler := newTestHandler(t, &stubClassifier{
		scores: map[string]float64{"high_intent": 0.2, "medium_intent": 0.3, "low_intent": 0.5},
	})

	output, err := handler.Execute(context.Background(), &Input{
		Name:      "Sam Ortiz",
		Email:     "sam@example.com",
		Inquiry:   "Just curious about the area",
		Budget:    100000,
		Location:  "Texas",
		Timeframe: "next year",
	})

	assert.NoError(t, err)
	// 0.4*0.2 + 0.3*0.2 + 0.2*0.3 + 0.1*0.4 = 0.24
	assert.InDelta(t, 0.24, output.Score, 1e-9)
	assert.Equal(t, "Low Intent", output.Intent)
}

func TestHandler_Execute_ClassifierDown(t *testing.T) {
	handler := newTestHandler(t, &stubClassifier{
		err: errors.New("CLASSIFIER_FAILED"),
	})

	output, err := handler.Execute(context.Background(), hotLeadInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	require.Len(t, output.Advisories, 1)
	assert.Equal(t, scoring.AdvisoryClassifierUnavailable, output.Advisories[0].Code)
	// Fallback intent 0.3: 0.4*0.3 + 0.3 + 0.2 + 0.1 = 0.72
	assert.InDelta(t, 0.72, output.Score, 1e-9)
	assert.Equal(t, "High Intent", output.Intent)
}

func TestHandler_Execute_UnparseableBudget(t *testing.T) {
	handler := newTestHandler(t, &stubClassifier{
		scores: map[string]float64{"high_intent": 0.9},
	})

	input := hotLeadInput()
	input.Budget = "around six hundred k"

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	require.Len(t, output.Advisories, 1)
	assert.Equal(t, scoring.AdvisoryInvalidBudget, output.Advisories[0].Code)
	// 0.4*0.9 + 0.3*0.2 + 0.2*1.0 + 0.1*1.0 = 0.72
	assert.InDelta(t, 0.72, output.Score, 1e-9)
}

func TestHandler_Execute_BreakdownExposed(t *testing.T) {
	handler := newTestHandler(t, &stubClassifier{
		scores: map[string]float64{"high_intent": 0.9},
	})

	output, err := handler.Execute(context.Background(), hotLeadInput())

	assert.NoError(t, err)
	assert.InDelta(t, 0.9, output.Breakdown.IntentScore, 1e-9)
	assert.InDelta(t, 1.0, output.Breakdown.BudgetScore, 1e-9)
	assert.InDelta(t, 1.0, output.Breakdown.LocationScore, 1e-9)
	assert.InDelta(t, 1.0, output.Breakdown.TimeframeScore, 1e-9)
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	cfg := scoring.DefaultConfig()
	engine := scoring.NewEngine(cfg, &stubClassifier{
		scores: map[string]float64{"high_intent": 0.9},
	}, logger.NewNoOpLogger())
	handler := NewHandler(createTestConfig(), engine, logger.NewNoOpLogger())
	input := hotLeadInput()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
