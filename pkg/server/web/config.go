package web

import (
	"github.com/jxeal/superdev-quiz/pkg/config"
	"github.com/jxeal/superdev-quiz/pkg/config/env"
	"github.com/jxeal/superdev-quiz/pkg/config/memory"
	"github.com/jxeal/superdev-quiz/pkg/config/wrapper"
)

const (
	envConfigPrefix = "INSTRUCTION_SERVER_"

	RateLimitPerSecondConfigEnvName = envConfigPrefix + "RATE_LIMIT_PER_SECOND"
	defaultRateLimitPerSecond       = 50.0

	RateLimitBurstConfigEnvName = envConfigPrefix + "RATE_LIMIT_BURST"
	defaultRateLimitBurst       = 100

	DisableRateLimitConfigEnvName = envConfigPrefix + "DISABLE_RATE_LIMIT"
	defaultDisableRateLimit       = false

	MaxRequestBodyBytesConfigEnvName = envConfigPrefix + "MAX_REQUEST_BODY_BYTES"
	defaultMaxRequestBodyBytes       = 64 * 1024
)

type conf struct {
	rateLimitPerSecond  config.Float64
	rateLimitBurst      config.Int64
	disableRateLimit    config.Bool
	maxRequestBodyBytes config.Int64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rateLimitPerSecond:  env.NewFloat64Config(RateLimitPerSecondConfigEnvName, defaultRateLimitPerSecond),
			rateLimitBurst:      env.NewInt64Config(RateLimitBurstConfigEnvName, defaultRateLimitBurst),
			disableRateLimit:    env.NewBoolConfig(DisableRateLimitConfigEnvName, defaultDisableRateLimit),
			maxRequestBodyBytes: env.NewInt64Config(MaxRequestBodyBytesConfigEnvName, defaultMaxRequestBodyBytes),
		}
	}
}

type testOverrides struct {
	rateLimitPerSecond  float64
	rateLimitBurst      int64
	disableRateLimit    bool
	maxRequestBodyBytes int64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rateLimitPerSecond:  wrapper.NewFloat64Config(memory.NewConfig(overrides.rateLimitPerSecond), defaultRateLimitPerSecond),
			rateLimitBurst:      wrapper.NewInt64Config(memory.NewConfig(overrides.rateLimitBurst), defaultRateLimitBurst),
			disableRateLimit:    wrapper.NewBoolConfig(memory.NewConfig(overrides.disableRateLimit), defaultDisableRateLimit),
			maxRequestBodyBytes: wrapper.NewInt64Config(memory.NewConfig(overrides.maxRequestBodyBytes), defaultMaxRequestBodyBytes),
		}
	}
}
