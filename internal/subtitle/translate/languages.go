package translate

import (
	"strings"

	"golang.org/x/text/language"
)

// Languages is the fixed set of codes the translator panel offers.
var Languages = []string{"en", "vi", "ja", "ko", "zh", "es", "fr", "de"}

// DefaultTag is used for any target the tag table does not map.
const DefaultTag = "EN"

var tags = map[string]string{
	"vi": "VI",
	"ja": "JP",
	"ko": "KO",
	"zh": "ZH",
	"es": "ES",
	"fr": "FR",
	"de": "DE",
}

var names = map[string]string{
	"en": "English",
	"vi": "Vietnamese",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

// Tag returns the caption marker for a target language code.
func Tag(code string) string {
	if t, ok := tags[code]; ok {
		return t
	}
	return DefaultTag
}

// LangName returns the display name for a code, or the code itself.
func LangName(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}

// IsSupported reports whether code is one of Languages.
func IsSupported(code string) bool {
	_, ok := names[code]
	return ok
}

// Canonical maps user input such as "VI" or "ja-JP" to a supported base
// code. ok is false when the input is not a language or not offered.
func Canonical(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	tag, err := language.Parse(input)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	code := base.String()
	return code, IsSupported(code)
}
