// internal/scoring/engine.go
package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/logger"
)

// Advisory codes attached to degraded results.
const (
	AdvisoryClassifierUnavailable = "CLASSIFIER_UNAVAILABLE"
	AdvisoryInvalidBudget         = "INVALID_BUDGET"
)

// LeadInput is a raw lead as captured from a form or a batch row.
// Budget is deliberately untyped: it arrives as a number from JSON
// payloads and as a string from CSV cells.
type LeadInput struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Inquiry   string      `json:"inquiry"`
	Budget    interface{} `json:"budget"`
	Location  string      `json:"location"`
	Timeframe string      `json:"timeframe"`
}

// Advisory reports a degradation that happened while scoring. It is
// part of the result, not a log side channel.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Breakdown carries the per-dimension scores behind the final score.
type Breakdown struct {
	IntentScore    float64 `json:"intentScore"`
	BudgetScore    float64 `json:"budgetScore"`
	LocationScore  float64 `json:"locationScore"`
	TimeframeScore float64 `json:"timeframeScore"`
}

// QualifyResult is the outcome of scoring a single lead.
type QualifyResult struct {
	Tier       string     `json:"tier"`
	FinalScore float64    `json:"finalScore"`
	Breakdown  Breakdown  `json:"breakdown"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Engine scores leads. It is pure apart from the classifier call: the
// same input and classifier responses always produce the same result.
type Engine struct {
	config     Config
	classifier classifier.IntentClassifier
	logger     logger.Logger
}

func NewEngine(config Config, cls classifier.IntentClassifier, log logger.Logger) *Engine {
	return &Engine{
		config:     config,
		classifier: cls,
		logger:     log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
}

// QualifyLead scores one lead. Per-lead problems (classifier outage,
// non-numeric budget) degrade to fallback scores with advisories; they
// never abort the lead.
func (e *Engine) QualifyLead(ctx context.Context, input LeadInput) (*QualifyResult, error) {
	var advisories []Advisory

	intentScore, adv := e.scoreIntent(ctx, input.Inquiry)
	if adv != nil {
		advisories = append(advisories, *adv)
	}

	budgetScore, adv := e.scoreBudget(input.Budget)
	if adv != nil {
		advisories = append(advisories, *adv)
	}

	locationScore := e.scoreLocation(input.Location)
	timeframeScore := e.scoreTimeframe(input.Timeframe)

	w := e.config.Weights
	finalScore := w.Intent*intentScore +
		w.Budget*budgetScore +
		w.Location*locationScore +
		w.Timeframe*timeframeScore

	tier := TierLow
	switch {
	case finalScore >= e.config.Tiers.High:
		tier = TierHigh
	case finalScore >= e.config.Tiers.Medium:
		tier = TierMedium
	}

	breakdown := Breakdown{
		IntentScore:    intentScore,
		BudgetScore:    budgetScore,
		LocationScore:  locationScore,
		TimeframeScore: timeframeScore,
	}

	e.logger.Info("lead qualified", map[string]interface{}{
		"email":      input.Email,
		"tier":       tier,
		"score":      finalScore,
		"breakdown":  breakdown,
		"advisories": len(advisories),
	})

	return &QualifyResult{
		Tier:       tier,
		FinalScore: finalScore,
		Breakdown:  breakdown,
		Advisories: advisories,
	}, nil
}

// scoreIntent asks the classifier for the probability of the target
// label. Any classifier failure falls back to a neutral score with an
// advisory so an operator can tell a degraded batch from a healthy one.
func (e *Engine) scoreIntent(ctx context.Context, inquiry string) (float64, *Advisory) {
	scores, err := e.classifier.Classify(ctx, inquiry, e.config.IntentLabels)
	if err != nil {
		e.logger.Warn("classifier unavailable, using fallback intent score", map[string]interface{}{
			"error":    err,
			"fallback": e.config.FallbackIntentScore,
		})
		return e.config.FallbackIntentScore, &Advisory{
			Code:    AdvisoryClassifierUnavailable,
			Message: fmt.Sprintf("intent classification failed (%v), fallback score %v applied", err, e.config.FallbackIntentScore),
		}
	}
	return scores[e.config.TargetLabel], nil
}

// scoreBudget coerces the raw budget to a number and maps it onto the
// configured bands. Coercion failure lands on the floor band with an
// advisory.
func (e *Engine) scoreBudget(raw interface{}) (float64, *Advisory) {
	budget, err := coerceBudget(raw)
	if err != nil {
		return e.config.BudgetFloorScore, &Advisory{
			Code:    AdvisoryInvalidBudget,
			Message: fmt.Sprintf("budget %v is not numeric, floor score %v applied", raw, e.config.BudgetFloorScore),
		}
	}

	for _, band := range e.config.BudgetBands {
		if budget >= band.Min {
			return band.Score, nil
		}
	}
	return e.config.BudgetFloorScore, nil
}

func coerceBudget(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		// CRM exports deliver budgets like "$450,000"; strip the
		// currency symbol and thousands separators before parsing.
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported budget type %T", raw)
	}
}

// scoreLocation does a lowercase substring match against the home and
// region token sets. Substring matching is intentional: free-text like
// "Saint Johns County, FL" must hit the home tokens. A short token such
// as "fl" can therefore match inside unrelated words, which is accepted
// for this market.
func (e *Engine) scoreLocation(location string) float64 {
	loc := strings.ToLower(location)
	for _, token := range e.config.Location.HomeTokens {
		if strings.Contains(loc, token) {
			return e.config.Location.HomeScore
		}
	}
	for _, token := range e.config.Location.RegionTokens {
		if strings.Contains(loc, token) {
			return e.config.Location.RegionScore
		}
	}
	return e.config.Location.BaseScore
}

func (e *Engine) scoreTimeframe(timeframe string) float64 {
	tf := strings.ToLower(timeframe)
	for _, token := range e.config.Timeframe.UrgentTokens {
		if strings.Contains(tf, token) {
			return e.config.Timeframe.UrgentScore
		}
	}
	for _, token := range e.config.Timeframe.NearTermTokens {
		if strings.Contains(tf, token) {
			return e.config.Timeframe.NearTermScore
		}
	}
	return e.config.Timeframe.BaseScore
}
