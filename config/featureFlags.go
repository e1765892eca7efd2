package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func boolFromEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

// ReportCacheEnabled turns on the Redis cache for stored report reads.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE")
}

// ReportCacheTTL reads REPORT_CACHE_TTL_SECONDS (default 120s).
func ReportCacheTTL() time.Duration {
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// ReportSlowThreshold reads REPORT_SLOW_MS (default 500ms). Runs slower than this are logged.
func ReportSlowThreshold() time.Duration {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// ReportLockTTL reads REPORT_LOCK_TTL_SECONDS (default 60s).
func ReportLockTTL() time.Duration {
	return time.Duration(intFromEnv("REPORT_LOCK_TTL_SECONDS", 60)) * time.Second
}
