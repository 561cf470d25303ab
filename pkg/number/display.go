package number

import (
	"github.com/nyaruka/phonenumbers"
)

// Display renders an identifier in international notation, e.g. "+55 31 99762-9068".
// Identifiers that do not parse are returned as their bare user part.
func Display(identifier string) string {
	user := User(identifier)
	if user == "" {
		return identifier
	}
	parsed, err := phonenumbers.Parse("+"+user, "BR")
	if err != nil {
		return user
	}
	return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL)
}
