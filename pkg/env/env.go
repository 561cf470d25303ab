package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// lookup returns the trimmed value of name; blank values count as unset.
func lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// parseOrDefault falls back to defaultValue when name is unset or does not parse.
func parseOrDefault[T any](name string, defaultValue T, parse func(string) (T, error)) T {
	v, ok := lookup(name)
	if !ok {
		return defaultValue
	}
	parsed, err := parse(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustGetEnvString panics when a required variable is unset or blank.
func MustGetEnvString(name string) string {
	v, ok := lookup(name)
	if !ok {
		panic(fmt.Sprintf("required environment variable %s is missing or empty", name))
	}
	return v
}

func GetEnvStringOrDefault(name string, defaultValue string) string {
	if v, ok := lookup(name); ok {
		return v
	}
	return defaultValue
}

// GetEnvRawOrDefault keeps surrounding whitespace, for payloads such as the probe body
// where it is meaningful.
func GetEnvRawOrDefault(name string, defaultValue string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return defaultValue
}

func GetEnvBoolOrDefault(name string, defaultValue bool) bool {
	return parseOrDefault(name, defaultValue, strconv.ParseBool)
}

// GetEnvIntOrDefault accepts any base prefix understood by strconv (0x, 0o, 0b).
func GetEnvIntOrDefault(name string, defaultValue int) int {
	return parseOrDefault(name, defaultValue, func(s string) (int, error) {
		n, err := strconv.ParseInt(s, 0, 0)
		return int(n), err
	})
}

func GetEnvDurationOrDefault(name string, defaultValue time.Duration) time.Duration {
	return parseOrDefault(name, defaultValue, time.ParseDuration)
}

// GetEnvListOrDefault splits a comma separated value, dropping blank items.
func GetEnvListOrDefault(name string, defaultValue []string) []string {
	v, ok := lookup(name)
	if !ok {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
