package payables

// FieldGroup is a labelled, ordered set of account fields for form layout
type FieldGroup struct {
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

// OtherFieldsLabel collects fields not assigned to any group
const OtherFieldsLabel = "Outros"

var accountFieldGroups = []FieldGroup{
	{Label: "Informações Básicas", Fields: []string{"name", "group_id", "kind", "recurrence"}},
	{Label: "Dados Financeiros", Fields: []string{"amount", "due_date", "paid", "payment_date"}},
	{Label: "Fornecedor", Fields: []string{"supplier_name", "supplier_tax_id"}},
	{Label: "Dados de Pagamento", Fields: []string{"payment_type", "pix_holder_name", "pix_key", "bank_branch", "bank_account_type", "origin_bank"}},
	{Label: "Veículo", Fields: []string{"vehicle_model", "vehicle_plate", "vehicle_renavam", "vehicle_year", "vehicle_charge"}},
	{Label: "Dados de Acesso", Fields: []string{"payment_link", "portal_username", "portal_password", "confirmation_phone", "notes"}},
}

// AccountFields lists every editable account field in display order
var AccountFields = []string{
	"name", "group_id", "kind", "recurrence",
	"amount", "due_date", "paid", "payment_date",
	"supplier_name", "supplier_tax_id",
	"payment_type", "pix_holder_name", "pix_key", "bank_branch", "bank_account_type", "origin_bank",
	"vehicle_model", "vehicle_plate", "vehicle_renavam", "vehicle_year", "vehicle_charge",
	"payment_link", "portal_username", "portal_password", "confirmation_phone", "notes",
	"status", "alert_lead_days", "alert_phone", "confirmation_template",
}

// GroupFields arranges fields into the static groups, keeping only names present in fields.
// Fields outside every group are appended under "Outros"; empty groups are dropped.
func GroupFields(fields []string) []FieldGroup {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}

	used := make(map[string]bool, len(fields))
	groups := make([]FieldGroup, 0, len(accountFieldGroups)+1)
	for _, g := range accountFieldGroups {
		var in []string
		for _, f := range g.Fields {
			if present[f] {
				in = append(in, f)
				used[f] = true
			}
		}
		if len(in) > 0 {
			groups = append(groups, FieldGroup{Label: g.Label, Fields: in})
		}
	}

	var rest []string
	for _, f := range fields {
		if !used[f] {
			rest = append(rest, f)
		}
	}
	if len(rest) > 0 {
		groups = append(groups, FieldGroup{Label: OtherFieldsLabel, Fields: rest})
	}
	return groups
}

// AccountFieldGroups returns the layout for the full account form
func AccountFieldGroups() []FieldGroup {
	return GroupFields(AccountFields)
}
