// internal/workers/lead/notify-hot-lead/models.go
package notifyhotlead

type Input struct {
	LeadID    string  `json:"leadId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Inquiry   string  `json:"inquiry"`
	Location  string  `json:"location"`
	Timeframe string  `json:"timeframe"`
	Intent    string  `json:"intent"`
	Score     float64 `json:"score"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
