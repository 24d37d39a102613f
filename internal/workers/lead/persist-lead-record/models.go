// internal/workers/lead/persist-lead-record/models.go
package persistleadrecord

import "lead-qualifier-workers/internal/scoring"

type Input struct {
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Inquiry    string             `json:"inquiry"`
	Budget     interface{}        `json:"budget"`
	Location   string             `json:"location"`
	Timeframe  string             `json:"timeframe"`
	Intent     string             `json:"intent"`
	Score      float64            `json:"score"`
	Breakdown  scoring.Breakdown  `json:"breakdown"`
	Advisories []scoring.Advisory `json:"advisories"`
}

type Output struct {
	LeadID     string `json:"leadId"`
	LeadStatus string `json:"leadStatus"`
	CRMLeadID  string `json:"crmLeadId,omitempty"`
	CreatedAt  string `json:"createdAt"` // ISO 8601
}
