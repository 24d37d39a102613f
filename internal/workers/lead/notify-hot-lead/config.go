// internal/workers/lead/notify-hot-lead/config.go
package notifyhotlead

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AgentEmail   string
	AgentPhone   string
	MinSMSScore  float64
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinSMSScore: 0.85,
		Timeout:     30 * time.Second,
	}
}
