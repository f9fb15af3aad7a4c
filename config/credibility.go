package config

import "fmt"

// CredibilityConfig tunes source verification.
type CredibilityConfig struct {
	Threshold           float64  `mapstructure:"threshold"`
	Placeholder         float64  `mapstructure:"placeholder"`
	ExtraCancerDomains  []string `mapstructure:"extra_cancer_domains"`
	ExtraMedicalDomains []string `mapstructure:"extra_medical_domains"`
}

// Normalize clamps configuration values and standardises domain lists.
func (c CredibilityConfig) Normalize() CredibilityConfig {
	cfg := c
	if cfg.Threshold <= 0 {
		cfg.Threshold = 6.0
	}
	if cfg.Threshold > 10 {
		cfg.Threshold = 10
	}
	if cfg.Placeholder < 0 {
		cfg.Placeholder = 0
	}
	if cfg.Placeholder > 1 {
		cfg.Placeholder = 1
	}
	cfg.ExtraCancerDomains = sanitizeDomainList(cfg.ExtraCancerDomains)
	cfg.ExtraMedicalDomains = sanitizeDomainList(cfg.ExtraMedicalDomains)
	return cfg
}

// Validate ensures configuration is internally consistent.
func (c CredibilityConfig) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 10 {
		return fmt.Errorf("credibility.threshold must be in (0, 10]")
	}
	if c.Placeholder < 0 || c.Placeholder > 1 {
		return fmt.Errorf("credibility.placeholder must be between 0 and 1")
	}
	cancer := make(map[string]struct{}, len(c.ExtraCancerDomains))
	for _, host := range c.Normalize().ExtraCancerDomains {
		cancer[host] = struct{}{}
	}
	for _, host := range c.Normalize().ExtraMedicalDomains {
		if _, ok := cancer[host]; ok {
			return fmt.Errorf("credibility conflict: host %q listed as both cancer and medical domain", host)
		}
	}
	return nil
}
