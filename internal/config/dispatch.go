package config

import (
	"time"
)

type DispatchConfig struct {
	RoundDeadline    time.Duration `yaml:"round_deadline"`
	FailureThreshold int           `yaml:"failure_threshold"`
	PruneInterval    string        `yaml:"prune_interval"`
	AlertTTL         time.Duration `yaml:"alert_ttl"`
	ProfileTTL       time.Duration `yaml:"profile_ttl"`
}

type DirectoryConfig struct {
	LookupAttempts int           `yaml:"lookup_attempts"`
	LookupBackoff  time.Duration `yaml:"lookup_backoff"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		RoundDeadline:    getEnvAsDuration("DISPATCH_ROUND_DEADLINE", 5*time.Second),
		FailureThreshold: getEnvAsInt("DISPATCH_FAILURE_THRESHOLD", 3),
		PruneInterval:    getEnv("DISPATCH_PRUNE_INTERVAL", "@every 1m"),
		AlertTTL:         getEnvAsDuration("ALERT_TTL", 30*24*time.Hour),
		ProfileTTL:       getEnvAsDuration("PROFILE_TTL", 365*24*time.Hour),
	}
}

func loadDirectoryConfig() *DirectoryConfig {
	return &DirectoryConfig{
		LookupAttempts: getEnvAsInt("DIRECTORY_LOOKUP_ATTEMPTS", 3),
		LookupBackoff:  getEnvAsDuration("DIRECTORY_LOOKUP_BACKOFF", 100*time.Millisecond),
		LookupTimeout:  getEnvAsDuration("DIRECTORY_LOOKUP_TIMEOUT", 2*time.Second),
	}
}
