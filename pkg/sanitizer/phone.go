package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "", "/", "", "\t", "")

// NormalizePhone strips separators. Numbers with a leading + that parse as
// valid international numbers come back in E.164; anything else is returned
// stripped so the validator can judge it.
func NormalizePhone(phone string) string {
	stripped := phoneSeparators.Replace(strings.TrimSpace(phone))
	if stripped == "" {
		return ""
	}

	if !strings.HasPrefix(stripped, "+") {
		return stripped
	}

	parsed, err := phonenumbers.Parse(stripped, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return stripped
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
