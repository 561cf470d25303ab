package number

import (
	"strconv"
	"strings"
)

const (
	DefaultCountryCode = "55"
	DefaultSuffix      = "s.whatsapp.net"

	areaCodeMin = 11
	areaCodeMax = 99
)

// Clean returns the digit-only projection of raw.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Base derives the country-qualified number from cleaned digits. The second return
// value is false when the digit count does not match any known national shape; such
// numbers are still handed to candidate generation.
func Base(cleaned string, countryCode string) (string, bool) {
	switch len(cleaned) {
	case 10:
		// Legacy 8-digit mobile, the ninth digit goes right after the area code
		return countryCode + cleaned[:2] + "9" + cleaned[2:], true
	case 11:
		return countryCode + cleaned, true
	case 12, 13:
		if strings.HasPrefix(cleaned, countryCode) && plausibleAreaCode(cleaned[len(countryCode):]) {
			return cleaned, true
		}
		return countryCode + cleaned, true
	}

	if strings.HasPrefix(cleaned, countryCode) {
		return cleaned, false
	}
	return countryCode + cleaned, false
}

func plausibleAreaCode(rest string) bool {
	if len(rest) < 2 {
		return false
	}
	ddd, err := strconv.Atoi(rest[:2])
	if err != nil {
		return false
	}
	return ddd >= areaCodeMin && ddd <= areaCodeMax
}

// Order picks which mobile-prefix interpretation of a 13-digit base is probed first.
type Order int

const (
	// LegacyFirst probes the 8-digit form (without the ninth digit) first. It is the
	// registration most accounts still carry.
	LegacyFirst Order = iota
	ModernFirst
)

func ParseOrder(s string) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modern", "modern_first", "9":
		return ModernFirst
	default:
		return LegacyFirst
	}
}

func (o Order) String() string {
	if o == ModernFirst {
		return "modern_first"
	}
	return "legacy_first"
}

// Candidates builds the identifiers worth probing for base, in probe order.
func Candidates(base string, countryCode string, suffix string, order Order) ([]string, error) {
	switch len(base) {
	case 13:
		ccLen := len(countryCode)
		if len(base) < ccLen+3 {
			return nil, &UnrecognizedFormatError{Digits: base}
		}
		ddd := base[ccLen : ccLen+2]
		withNine := base[ccLen+2:]
		legacy := Identifier(countryCode+ddd+withNine[1:], suffix)
		modern := Identifier(countryCode+ddd+withNine, suffix)
		if order == ModernFirst {
			return []string{modern, legacy}, nil
		}
		return []string{legacy, modern}, nil
	case 12:
		return []string{Identifier(base, suffix)}, nil
	}
	return nil, &UnrecognizedFormatError{Digits: base}
}

// Identifier joins a base number and a network suffix.
func Identifier(base string, suffix string) string {
	suffix = strings.TrimPrefix(suffix, "@")
	if suffix == "" {
		return base
	}
	return base + "@" + suffix
}

// User returns the part of an identifier before the network suffix.
func User(identifier string) string {
	if i := strings.IndexByte(identifier, '@'); i >= 0 {
		return identifier[:i]
	}
	return identifier
}
