package sanitizer

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "IN"

// PhoneNormalizer formats phone numbers as E.164. Numbers without a country
// code are read in Region.
type PhoneNormalizer struct {
	Region string
}

func NewPhoneNormalizer(region string) PhoneNormalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return PhoneNormalizer{Region: region}
}

// Normalize returns the E.164 form of phone, or "" when it is not a phone
// number. Letters are rejected rather than read as keypad digits.
func (n PhoneNormalizer) Normalize(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.ContainsFunc(phone, unicode.IsLetter) {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, n.Region)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// NormalizePhone normalizes with the default region.
func NormalizePhone(phone string) string {
	return NewPhoneNormalizer(DefaultRegion).Normalize(phone)
}
