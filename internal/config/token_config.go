package config

import "time"

type TokenConfig interface {
	GetTokenSecret() string
	GetTokenTTL() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

// GetTokenSecret returns the HMAC signing secret for issued session tokens.
// The development default keeps local setups zero-config; production
// deployments must set TOKEN_SECRET.
func (Token) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-insecure-token-secret")
}

// GetTokenTTL returns the validity window of issued tokens.
func (Token) GetTokenTTL() time.Duration {
	raw := GetEnv("TOKEN_TTL", "1h")
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		return time.Hour
	}
	return ttl
}
