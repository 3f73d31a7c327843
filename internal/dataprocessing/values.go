package dataprocessing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"retentionpulse/pkg/contracts/domain"
)

var affirmativeAnswers = map[string]struct{}{
	"SI":   {},
	"SÍ":   {},
	"YES":  {},
	"1":    {},
	"TRUE": {},
}

// NormalizeAnswer maps free text to domain.AnswerYes or domain.AnswerNo.
// There is no third outcome: blanks and unrecognized text are "No".
func NormalizeAnswer(raw string) string {
	if IsAffirmative(raw) {
		return domain.AnswerYes
	}
	return domain.AnswerNo
}

// IsAffirmative reports whether raw, trimmed, composed to NFC and uppercased,
// is one of the accepted affirmative spellings.
func IsAffirmative(raw string) bool {
	v := cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(raw)))
	_, ok := affirmativeAnswers[v]
	return ok
}
