package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"signal-directory/directory"
)

type Config struct {
	Port              string
	HCaptchaSecret    string
	HCaptchaVerifyURL string
	JwtSecret         string
	AdmissionTTL      time.Duration
	VerifyTimeout     time.Duration
	MaxInRoom         int
	GCPeriod          time.Duration
	IdleThreshold     time.Duration
	FullThreshold     time.Duration
	AllowedOrigins    []string
	RateLimit         int
	LogLevel          string
}

// MustLoadConfig reads the environment, optionally seeded from envFile.
// Missing secrets and unparsable values panic.
func MustLoadConfig(envFile string) *Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Sprintf("loading %s: %v", envFile, err))
		}
	} else {
		godotenv.Load()
	}
	return &Config{
		Port:              envString("PORT", "5000"),
		HCaptchaSecret:    mustEnv("HCAPTCHA_SECRET"),
		HCaptchaVerifyURL: envString("HCAPTCHA_VERIFY_URL", defaultHCaptchaVerifyURL),
		JwtSecret:         mustEnv("JWT_SECRET"),
		AdmissionTTL:      envDuration("ADMISSION_TTL", defaultAdmissionTTL),
		VerifyTimeout:     envDuration("VERIFY_TIMEOUT", defaultVerifyTimeout),
		MaxInRoom:         envInt("MAX_IN_ROOM", directory.DefaultMaxMembers),
		GCPeriod:          envDuration("GC_PERIOD", directory.DefaultSweepPeriod),
		IdleThreshold:     envDuration("IDLE_THRESHOLD", directory.DefaultIdleThreshold),
		FullThreshold:     envDuration("FULL_THRESHOLD", directory.DefaultFullThreshold),
		AllowedOrigins:    strings.Split(envString("ALLOWED_ORIGINS", "*"), ","),
		RateLimit:         envInt("RATE_LIMIT", 30),
		LogLevel:          envString("LOG_LEVEL", "info"),
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(key + " is not provided!")
	}
	return value
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		panic(fmt.Sprintf("%s must be a positive integer, got %q", key, value))
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		panic(fmt.Sprintf("%s must be a positive duration, got %q", key, value))
	}
	return parsed
}
