package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retentionpulse/pkg/contracts/domain"
)

func TestNormalizeAnswer(t *testing.T) {
	affirmative := []string{"si", "Si", "SI", "sí", "Sí", "SÍ", "yes", "YES", "Yes", "1", "true", "TRUE", "True", "  si  ", "\tyes\n", "si\u0301", "SI\u0301"}
	for _, v := range affirmative {
		assert.Equal(t, domain.AnswerYes, NormalizeAnswer(v), "input %q", v)
	}

	negative := []string{"", " ", "no", "NO", "No", "0", "false", "n/a", "nan", "s", "sii", "yes please", "2", "None"}
	for _, v := range negative {
		assert.Equal(t, domain.AnswerNo, NormalizeAnswer(v), "input %q", v)
	}
}

func TestNormalizeAnswer_ClosedDomain(t *testing.T) {
	inputs := []string{"si", "maybe", "", "SÍ", "🙂", "true", "FALSE", "1.0", "null"}
	for _, v := range inputs {
		got := NormalizeAnswer(v)
		assert.Contains(t, []string{domain.AnswerYes, domain.AnswerNo}, got)
		assert.Equal(t, got == domain.AnswerYes, IsAffirmative(v))
	}
}
