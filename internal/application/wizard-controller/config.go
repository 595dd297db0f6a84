// internal/application/wizard-controller/config.go
package wizardcontroller

import "applicant-portal/internal/common/config"

type Config struct {
	// MaxConcurrentEncode bounds AttachFiles; 0 or less means one at a time.
	MaxConcurrentEncode int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{MaxConcurrentEncode: 1}
	if cfg != nil && cfg.Uploads.MaxConcurrentEncode > 0 {
		c.MaxConcurrentEncode = cfg.Uploads.MaxConcurrentEncode
	}
	return c
}
