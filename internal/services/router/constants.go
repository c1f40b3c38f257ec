package router

import "time"

// Default configuration values
const (
	DefaultRateLimitCeiling = 5
	DefaultRateLimitWindow  = time.Minute
	DefaultCallTimeout      = 10 * time.Second
)
