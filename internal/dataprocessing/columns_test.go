package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retentionpulse/pkg/contracts/domain"
)

func TestHomologateColumns(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "snake and upper case aliases",
			input: []string{"customer_id", "QUIERE_BAJA", "acepto_descuento", "FECHA_RESPUESTA"},
			want:  []string{domain.ColumnCustomerID, domain.ColumnWantsCancelation, domain.ColumnAcceptedDiscount, domain.ColumnResponseDate},
		},
		{
			name:  "spacing and case variants",
			input: []string{" Customer Id ", "CUSTOMER_ID", "Quiere Baja", "Aceptó descuento", "Fecha de respuesta"},
			want:  []string{domain.ColumnCustomerID, domain.ColumnCustomerID, domain.ColumnWantsCancelation, domain.ColumnAcceptedDiscount, domain.ColumnResponseDate},
		},
		{
			name:  "unknown columns pass through",
			input: []string{"Nombre", "Comentario", "customer_id"},
			want:  []string{"Nombre", "Comentario", domain.ColumnCustomerID},
		},
		{
			name:  "empty header",
			input: []string{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HomologateColumns(tt.input))
		})
	}
}

func TestHomologateColumns_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"customer_id", "QUIERE BAJA", "Acepto_Descuento", "fecha respuesta", "Otra"},
		{domain.ColumnCustomerID, domain.ColumnWantsCancelation, domain.ColumnAcceptedDiscount, domain.ColumnResponseDate},
		{"CUSTOMER-ID", "  extra  "},
	}
	for _, in := range inputs {
		once := HomologateColumns(in)
		assert.Equal(t, once, HomologateColumns(once))
	}
}

func TestCanonicalColumn(t *testing.T) {
	got, ok := CanonicalColumn("Customer Id")
	assert.True(t, ok)
	assert.Equal(t, domain.ColumnCustomerID, got)

	got, ok = CanonicalColumn("Region")
	assert.False(t, ok)
	assert.Equal(t, "Region", got)
}
