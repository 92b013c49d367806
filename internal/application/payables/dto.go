package payables

import (
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountDetailsDTO carries supplier, payment, vehicle and access data
type AccountDetailsDTO struct {
	SupplierName    string `json:"supplier_name,omitempty"`
	SupplierTaxID   string `json:"supplier_tax_id,omitempty"`
	PaymentType     string `json:"payment_type,omitempty"`
	PixHolderName   string `json:"pix_holder_name,omitempty"`
	PixKey          string `json:"pix_key,omitempty"`
	BankBranch      string `json:"bank_branch,omitempty"`
	BankAccountType string `json:"bank_account_type,omitempty"`
	OriginBank      string `json:"origin_bank,omitempty"`
	VehicleModel    string `json:"vehicle_model,omitempty"`
	VehiclePlate    string `json:"vehicle_plate,omitempty"`
	VehicleRenavam  string `json:"vehicle_renavam,omitempty"`
	VehicleYear     *int   `json:"vehicle_year,omitempty"`
	VehicleCharge   string `json:"vehicle_charge,omitempty"`
	PortalUsername  string `json:"portal_username,omitempty"`
	PortalPassword  string `json:"portal_password,omitempty"`
	PaymentLink     string `json:"payment_link,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// AccountDTO is the read model of an account
type AccountDTO struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	GroupID              uuid.UUID         `json:"group_id"`
	GroupName            string            `json:"group_name,omitempty"`
	Kind                 string            `json:"kind"`
	Recurrence           string            `json:"recurrence"`
	RecurrenceLabel      string            `json:"recurrence_label"`
	Amount               decimal.Decimal   `json:"amount"`
	AmountFormatted      string            `json:"amount_formatted"`
	DueDate              string            `json:"due_date"`
	Paid                 bool              `json:"paid"`
	PaymentDate          *string           `json:"payment_date,omitempty"`
	Status               string            `json:"status"`
	StatusLabel          string            `json:"status_label"`
	AlertLeadDays        int               `json:"alert_lead_days"`
	ConfirmationPhone    string            `json:"confirmation_phone,omitempty"`
	AlertPhone           string            `json:"alert_phone,omitempty"`
	ConfirmationTemplate string            `json:"confirmation_template,omitempty"`
	Active               bool              `json:"active"`
	Details              AccountDetailsDTO `json:"details"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// ToAccountDTO maps a domain account to its read model
func ToAccountDTO(a *payables.Account) AccountDTO {
	dto := AccountDTO{
		ID:                   a.ID,
		Name:                 a.Name,
		GroupID:              a.GroupID,
		GroupName:            a.GroupName,
		Kind:                 string(a.Kind),
		Recurrence:           string(a.Recurrence),
		RecurrenceLabel:      a.Recurrence.Label(),
		Amount:               a.Amount,
		AmountFormatted:      payables.FormatBRL(a.Amount),
		DueDate:              a.DueDate.Format(payables.DateLayout),
		Paid:                 a.Paid,
		Status:               string(a.Status),
		StatusLabel:          a.Status.Label(),
		AlertLeadDays:        a.AlertLeadDays,
		ConfirmationPhone:    a.ConfirmationPhone,
		AlertPhone:           a.AlertPhone,
		ConfirmationTemplate: a.ConfirmationTemplate,
		Active:               a.Active,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
		Details: AccountDetailsDTO{
			SupplierName:    a.Details.SupplierName,
			SupplierTaxID:   a.Details.SupplierTaxID,
			PaymentType:     string(a.Details.PaymentType),
			PixHolderName:   a.Details.PixHolderName,
			PixKey:          a.Details.PixKey,
			BankBranch:      a.Details.BankBranch,
			BankAccountType: string(a.Details.BankAccountType),
			OriginBank:      a.Details.OriginBank,
			VehicleModel:    a.Details.VehicleModel,
			VehiclePlate:    a.Details.VehiclePlate,
			VehicleRenavam:  a.Details.VehicleRenavam,
			VehicleYear:     a.Details.VehicleYear,
			VehicleCharge:   string(a.Details.VehicleCharge),
			PortalUsername:  a.Details.PortalUsername,
			PortalPassword:  a.Details.PortalPassword,
			PaymentLink:     a.Details.PaymentLink,
			Notes:           a.Details.Notes,
		},
	}
	if a.PaymentDate != nil {
		s := a.PaymentDate.Format(payables.DateLayout)
		dto.PaymentDate = &s
	}
	return dto
}

// GroupDTO is the read model of an account group
type GroupDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToGroupDTO maps a domain group to its read model
func ToGroupDTO(g *payables.Group) GroupDTO {
	return GroupDTO{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Active:      g.Active,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// BillingDTO is the read model of a billing record
type BillingDTO struct {
	ID             uuid.UUID       `json:"id"`
	ReferenceMonth string          `json:"reference_month"`
	Store          decimal.Decimal `json:"store"`
	ModoBankPix    decimal.Decimal `json:"modobank_pix"`
	ModoBankCard   decimal.Decimal `json:"modobank_card"`
	EfiBankBoleto  decimal.Decimal `json:"efibank_boleto"`
	CelcoinCard    decimal.Decimal `json:"celcoin_card"`
	CardMachine    decimal.Decimal `json:"card_machine"`
	Gross          decimal.Decimal `json:"gross"`
	GrossFormatted string          `json:"gross_formatted"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToBillingDTO maps a domain billing record to its read model
func ToBillingDTO(b *payables.Billing) BillingDTO {
	return BillingDTO{
		ID:             b.ID,
		ReferenceMonth: b.ReferenceMonth.Format("2006-01"),
		Store:          b.Channels.Store,
		ModoBankPix:    b.Channels.ModoBankPix,
		ModoBankCard:   b.Channels.ModoBankCard,
		EfiBankBoleto:  b.Channels.EfiBankBoleto,
		CelcoinCard:    b.Channels.CelcoinCard,
		CardMachine:    b.Channels.CardMachine,
		Gross:          b.Gross,
		GrossFormatted: payables.FormatBRL(b.Gross),
		Note:           b.Note,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// PaymentHistoryDTO is the read model of a payment ledger entry
type PaymentHistoryDTO struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	AccountName   string          `json:"account_name"`
	GroupID       uuid.UUID       `json:"group_id"`
	GroupName     string          `json:"group_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
	PaymentDate   string          `json:"payment_date"`
	DaysLate      int             `json:"days_late"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentHistoryDTO maps a ledger entry to its read model
func ToPaymentHistoryDTO(h *payables.PaymentHistory) PaymentHistoryDTO {
	return PaymentHistoryDTO{
		ID:            h.ID,
		AccountID:     h.AccountID,
		AccountName:   h.AccountName,
		GroupID:       h.GroupID,
		GroupName:     h.GroupName,
		Amount:        h.Amount,
		DueDate:       h.DueDate.Format(payables.DateLayout),
		PaymentDate:   h.PaymentDate.Format(payables.DateLayout),
		DaysLate:      h.DaysLate,
		PaymentMethod: string(h.PaymentMethod),
		Note:          h.Note,
		CreatedAt:     h.CreatedAt,
	}
}
