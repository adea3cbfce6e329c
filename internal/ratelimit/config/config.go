package config

import (
	"time"

	"cardforge/internal/ratelimit/models"
)

// Config holds admission control configuration.
type Config struct {
	// Limits maps each action to its window parameters.
	Limits map[models.Action]Limit

	// Penalty controls the progressive lockout applied to repeat violators.
	Penalty PenaltyConfig
}

// Limit defines sliding-window parameters for one action.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
	// Burst caps requests within the burst sub-window, catching short
	// spikes that the full window would tolerate.
	Burst       int
	BurstWindow time.Duration
}

// PenaltyConfig defines the progressive penalty schedule.
type PenaltyConfig struct {
	// BaseDelay is the lockout for a first violation.
	BaseDelay time.Duration
	// MaxMultiplier caps the geometric escalation (1x, 2x, 4x, ...).
	MaxMultiplier int
	// ViolationTTL is how long a violation counter survives without new
	// violations before the multiplier resets.
	ViolationTTL time.Duration
}

// DefaultConfig returns the default admission limits per action.
func DefaultConfig() *Config {
	return &Config{
		Limits: map[models.Action]Limit{
			models.ActionDefault:        {RequestsPerWindow: 60, Window: time.Minute, Burst: 10, BurstWindow: time.Minute},
			models.ActionBinLookup:      {RequestsPerWindow: 100, Window: time.Minute, Burst: 15, BurstWindow: time.Minute},
			models.ActionCardGeneration: {RequestsPerWindow: 20, Window: time.Minute, Burst: 5, BurstWindow: time.Minute},
			models.ActionBulkGeneration: {RequestsPerWindow: 5, Window: time.Minute, Burst: 2, BurstWindow: time.Minute},
			models.ActionPremium:        {RequestsPerWindow: 500, Window: time.Minute, Burst: 50, BurstWindow: time.Minute},
		},
		Penalty: PenaltyConfig{
			BaseDelay:     time.Minute,
			MaxMultiplier: 16,
			ViolationTTL:  time.Hour,
		},
	}
}

// GetLimit returns the limit for an action, falling back to the default
// action when the action is not configured.
func (c *Config) GetLimit(action models.Action) Limit {
	if limit, ok := c.Limits[action]; ok {
		return limit
	}
	return c.Limits[models.ActionDefault]
}

// Multiplier returns the penalty multiplier for a violation count:
// 1x, 2x, 4x, 8x, ... capped at MaxMultiplier.
func (p PenaltyConfig) Multiplier(violationCount int) int {
	if violationCount <= 1 {
		return 1
	}
	multiplier := 1
	for i := 1; i < violationCount; i++ {
		multiplier *= 2
		if multiplier >= p.MaxMultiplier {
			return p.MaxMultiplier
		}
	}
	return multiplier
}

// Delay returns the lockout duration for a violation count.
func (p PenaltyConfig) Delay(violationCount int) time.Duration {
	return p.BaseDelay * time.Duration(p.Multiplier(violationCount))
}
