package language

import (
	"github.com/book-expert/logger"
	"github.com/pemistahl/lingua-go"
)

// Detector classifies text into one of the supported languages using
// statistical models restricted to that set. Detection is deterministic for
// identical input. It is stateless after construction and safe for
// concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
	fallback Code
	log      *logger.Logger
}

// NewDetector builds a detector over the supported languages. When no
// confident classification exists, Detect returns the fallback code instead
// of an error.
func NewDetector(fallback Code, log *logger.Logger) *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(linguaLanguages()...).
		Build()

	return &Detector{
		detector: detector,
		fallback: fallback,
		log:      log,
	}
}

// Detect returns the language of the given text, or the configured fallback
// when classification fails.
func (d *Detector) Detect(text string) Code {
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		d.log.Warn("Could not detect language, falling back to %s", d.fallback)

		return d.fallback
	}

	code, known := fromLingua(detected)
	if !known {
		// Unreachable while the detector is built from the table, kept as
		// a guard against a future mismatch.
		d.log.Warn("Detector returned unmapped language %v, falling back to %s",
			detected, d.fallback)

		return d.fallback
	}

	return code
}
