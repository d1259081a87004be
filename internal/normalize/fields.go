package normalize

// Canonical schema keys, already in normalized form.
const (
	FieldDate        = "data"
	FieldKind        = "tipo"
	FieldCategory    = "categoria"
	FieldValue       = "valor"
	FieldDescription = "descricao"
	FieldCostCenter  = "centro de custo"
)

// aliases maps other normalized spellings seen in exports to schema
// fields.
var aliases = map[string]string{
	"date":               FieldDate,
	"data do lancamento": FieldDate,
	"dia":                FieldDate,
	"type":               FieldKind,
	"natureza":           FieldKind,
	"category":           FieldCategory,
	"classificacao":      FieldCategory,
	"value":              FieldValue,
	"amount":             FieldValue,
	"valor (r$)":         FieldValue,
	"valor r$":           FieldValue,
	"description":        FieldDescription,
	"historico":          FieldDescription,
	"evento":             FieldDescription,
	"cost center":        FieldCostCenter,
	"centro custo":       FieldCostCenter,
	"rateio":             FieldCostCenter,
	"cc":                 FieldCostCenter,
}

// Field resolves a raw header to a schema field. The first return is
// the schema key on a hit, otherwise the normalized form of the input.
func Field(header string) (string, bool) {
	k := Key(header)
	switch k {
	case FieldDate, FieldKind, FieldCategory, FieldValue, FieldDescription, FieldCostCenter:
		return k, true
	}
	if f, ok := aliases[k]; ok {
		return f, true
	}
	return k, false
}

// SchemaFields lists the canonical keys in column order.
func SchemaFields() []string {
	return []string{FieldDate, FieldKind, FieldCategory, FieldValue, FieldDescription, FieldCostCenter}
}

// Recognized lists every spelling Field resolves, canonical keys first.
// Import errors use it to suggest a close header for an unmapped column.
func Recognized() []string {
	out := SchemaFields()
	for k := range aliases {
		out = append(out, k)
	}
	return out
}
