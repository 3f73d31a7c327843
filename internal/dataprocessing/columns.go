package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"retentionpulse/pkg/contracts/domain"
)

// columnAliases maps a folded header (see columnKey) to its canonical name.
var columnAliases = map[string]string{
	"customerid": domain.ColumnCustomerID,
	"clienteid":  domain.ColumnCustomerID,
	"idcliente":  domain.ColumnCustomerID,
	"idcustomer": domain.ColumnCustomerID,

	"quierebaja":        domain.ColumnWantsCancelation,
	"quieredarsedebaja": domain.ColumnWantsCancelation,
	"baja":              domain.ColumnWantsCancelation,
	"wantscancellation": domain.ColumnWantsCancelation,
	"wantscancelation":  domain.ColumnWantsCancelation,

	"aceptodescuento":  domain.ColumnAcceptedDiscount,
	"aceptódescuento":  domain.ColumnAcceptedDiscount,
	"aceptadescuento":  domain.ColumnAcceptedDiscount,
	"descuento":        domain.ColumnAcceptedDiscount,
	"accepteddiscount": domain.ColumnAcceptedDiscount,

	"fecharespuesta":   domain.ColumnResponseDate,
	"fechaderespuesta": domain.ColumnResponseDate,
	"responsedate":     domain.ColumnResponseDate,
}

// columnKey folds case and drops spaces, underscores, dashes and dots so
// "CUSTOMER_ID", "Customer Id" and "customer-id" share a key.
func columnKey(name string) string {
	folded := cases.Fold().String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsSpace(r) || r == '_' || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CanonicalColumn returns the canonical name for header and whether it was
// recognized. Unknown headers come back unchanged.
func CanonicalColumn(header string) (string, bool) {
	if canonical, ok := columnAliases[columnKey(header)]; ok {
		return canonical, true
	}
	return header, false
}

// HomologateColumns renames known header aliases to the four canonical
// column names. Applying it to its own output is a no-op.
func HomologateColumns(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i], _ = CanonicalColumn(h)
	}
	return out
}
