package domain

import "strings"

// PlannerMode returns the configured default mode, falling back to auto for unknown values.
func (c *Config) PlannerMode() Mode {
	mode, err := ParseMode(c.Planner.Mode)
	if err != nil {
		return ModeAuto
	}
	return mode
}

// GenerationEnabled reports whether a text-generation provider is configured at all.
// Credentials are checked later, at call time.
func (c *Config) GenerationEnabled() bool {
	switch c.Generation.Provider {
	case "", ProviderKindNone:
		return false
	default:
		return true
	}
}

// CredentialEnvVar returns the environment variable holding the provider credential.
func (c *Config) CredentialEnvVar() string {
	if c.Generation.AuthEnvVar != "" {
		return c.Generation.AuthEnvVar
	}
	return c.Generation.Provider.DefaultAuthEnvVar()
}

// ApplyWindowDefaults fills the request date window from configured defaults.
func (c *Config) ApplyWindowDefaults(req PlanRequest) PlanRequest {
	if strings.TrimSpace(req.Start) == "" {
		req.Start = c.Planner.DefaultStart
	}
	if strings.TrimSpace(req.End) == "" {
		req.End = c.Planner.DefaultEnd
	}
	if req.Mode == "" {
		req.Mode = c.PlannerMode()
	}
	return req
}
