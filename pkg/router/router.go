package router

import (
	"strconv"
	"strings"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
)

const defaultBodyLimit = 1 << 20

var sizeUnits = map[string]int{"K": 1 << 10, "M": 1 << 20, "G": 1 << 30}

// HTTP settings, read once from the environment.
var (
	// BaseURL prefixes every route; empty or "/" means none.
	BaseURL    = normalizeBaseURL(env.GetEnvStringOrDefault("HTTP_BASE_URL", ""))
	CORSOrigin = env.GetEnvStringOrDefault("HTTP_CORS_ORIGIN", "*")
	GZipLevel  = env.GetEnvIntOrDefault("HTTP_GZIP_LEVEL", 1)

	bodyLimit = parseBodyLimit(env.GetEnvStringOrDefault("HTTP_BODY_LIMIT_SIZE", "1M"))
)

// BodyLimitBytes is HTTP_BODY_LIMIT_SIZE ("512", "64K", "1M", ...) in bytes.
func BodyLimitBytes() int {
	return bodyLimit
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

func parseBodyLimit(limit string) int {
	limit = strings.ToUpper(strings.TrimSpace(limit))
	multiplier := 1
	if n := len(limit); n > 0 {
		if unit, ok := sizeUnits[limit[n-1:]]; ok {
			multiplier = unit
			limit = strings.TrimSpace(limit[:n-1])
		}
	}
	value, err := strconv.Atoi(limit)
	if err != nil || value <= 0 {
		return defaultBodyLimit
	}
	return value * multiplier
}
