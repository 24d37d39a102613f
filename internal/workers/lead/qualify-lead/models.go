// internal/workers/lead/qualify-lead/models.go
package qualifylead

import "lead-qualifier-workers/internal/scoring"

type Input struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Inquiry   string      `json:"inquiry"`
	Budget    interface{} `json:"budget"`
	Location  string      `json:"location"`
	Timeframe string      `json:"timeframe"`
}

type Output struct {
	Intent      string             `json:"intent"`
	Score       float64            `json:"score"`
	Breakdown   scoring.Breakdown  `json:"breakdown"`
	Advisories  []scoring.Advisory `json:"advisories"`
	QualifiedAt string             `json:"qualifiedAt"`
}
