// Package language defines the closed set of languages the synthesis
// pipeline supports and provides statistical language detection over it.
//
// Detection output and provider voice selection both read the single
// canonical table in this file, so the two sites cannot drift apart.
package language

import (
	"errors"
	"fmt"

	"github.com/pemistahl/lingua-go"
)

// Code is the canonical two-letter identifier for a supported language.
type Code string

// The six supported languages.
const (
	English    Code = "en"
	Spanish    Code = "es"
	French     Code = "fr"
	German     Code = "de"
	Italian    Code = "it"
	Portuguese Code = "pt"
)

// ErrUnsupportedLanguage is returned when a code is outside the supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Voices holds the provider-specific voice identifiers for one language.
type Voices struct {
	// Polly is the AWS Polly neural voice name.
	Polly string

	// OpenAI is the OpenAI speech voice name.
	OpenAI string
}

// entry binds a language code to its detector class and its voices.
type entry struct {
	lingua lingua.Language
	voices Voices
}

// table is the single canonical language mapping. Add a language here and
// every consumer (detector, both providers) picks it up.
var table = map[Code]entry{
	English:    {lingua: lingua.English, voices: Voices{Polly: "Joanna", OpenAI: "alloy"}},
	Spanish:    {lingua: lingua.Spanish, voices: Voices{Polly: "Lucia", OpenAI: "echo"}},
	French:     {lingua: lingua.French, voices: Voices{Polly: "Lea", OpenAI: "nova"}},
	German:     {lingua: lingua.German, voices: Voices{Polly: "Vicki", OpenAI: "onyx"}},
	Italian:    {lingua: lingua.Italian, voices: Voices{Polly: "Bianca", OpenAI: "fable"}},
	Portuguese: {lingua: lingua.Portuguese, voices: Voices{Polly: "Ines", OpenAI: "shimmer"}},
}

// All returns the supported codes in a stable order.
func All() []Code {
	return []Code{English, Spanish, French, German, Italian, Portuguese}
}

// Parse validates a two-letter code against the supported set.
func Parse(raw string) (Code, error) {
	code := Code(raw)

	_, ok := table[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, raw)
	}

	return code, nil
}

// VoicesFor returns the provider voice identifiers for a supported code.
func VoicesFor(code Code) (Voices, error) {
	languageEntry, ok := table[code]
	if !ok {
		return Voices{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(code))
	}

	return languageEntry.voices, nil
}

// String returns the canonical two-letter code.
func (c Code) String() string {
	return string(c)
}

// fromLingua maps a detector class back to a canonical code. The detector is
// built exclusively from table entries, so the lookup cannot miss.
func fromLingua(detected lingua.Language) (Code, bool) {
	for code, languageEntry := range table {
		if languageEntry.lingua == detected {
			return code, true
		}
	}

	return "", false
}

// linguaLanguages returns the detector classes for the supported set.
func linguaLanguages() []lingua.Language {
	languages := make([]lingua.Language, 0, len(table))
	for _, code := range All() {
		languages = append(languages, table[code].lingua)
	}

	return languages
}
