// internal/models/lead.go
package models

import "lead-qualifier-workers/internal/scoring"

// LeadRecord is the persisted form of a qualified lead, shared by the
// Postgres row, the search index document and batch exports.
type LeadRecord struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Inquiry    string             `json:"inquiry"`
	Budget     interface{}        `json:"budget,omitempty"`
	Location   string             `json:"location"`
	Timeframe  string             `json:"timeframe"`
	Intent     string             `json:"intent"`
	Score      float64            `json:"score"`
	Breakdown  scoring.Breakdown  `json:"breakdown"`
	Advisories []scoring.Advisory `json:"advisories,omitempty"`
	CRMLeadID  string             `json:"crmLeadId,omitempty"`
	CreatedAt  string             `json:"createdAt"`
}
