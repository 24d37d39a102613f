// internal/workers/lead/persist-lead-record/config.go
package persistleadrecord

import "time"

type Config struct {
	Timeout   time.Duration
	LeadIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   10 * time.Second,
		LeadIndex: "leads",
	}
}
