package validation

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country code are read as US numbers.
var supportedRegions = []string{
	"US",
	"CA",
}

// NormalizePhone returns phone in E.164 form, or false when it is not a possible number.
func NormalizePhone(phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", false
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsPossibleNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164), true
		}
	}
	return "", false
}
