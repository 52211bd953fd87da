package invitation

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legacyParams are the pre-code query parameters that carry a free-text recipient name
var legacyParams = []string{"to", "nama", "guest"}

// RecipientName sanitises a free-text name from a shared link: angle brackets
// are removed, whitespace collapsed and the result title-cased.
func RecipientName(raw string) string {
	cleaned := strings.NewReplacer("<", "", ">", "").Replace(raw)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	// a Caser keeps state, so one per call
	return cases.Title(language.Indonesian).String(strings.ToLower(cleaned))
}

// LegacyRecipient returns the sanitised recipient from the first non-empty legacy parameter
func LegacyRecipient(query func(key string) string) string {
	for _, key := range legacyParams {
		if name := RecipientName(query(key)); name != "" {
			return name
		}
	}
	return ""
}
