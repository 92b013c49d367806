package handler

import (
	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountDetailsRequest carries the optional supplier, payment, vehicle and access fields
type AccountDetailsRequest struct {
	SupplierName    string `json:"supplier_name" binding:"max=200"`
	SupplierTaxID   string `json:"supplier_tax_id" binding:"max=20"`
	PaymentType     string `json:"payment_type" binding:"max=30"`
	PixHolderName   string `json:"pix_holder_name" binding:"max=200"`
	PixKey          string `json:"pix_key" binding:"max=200"`
	BankBranch      string `json:"bank_branch" binding:"max=20"`
	BankAccountType string `json:"bank_account_type" binding:"omitempty,oneof=corrente poupanca pix"`
	OriginBank      string `json:"origin_bank" binding:"max=30"`
	VehicleModel    string `json:"vehicle_model" binding:"max=100"`
	VehiclePlate    string `json:"vehicle_plate" binding:"max=10"`
	VehicleRenavam  string `json:"vehicle_renavam" binding:"max=20"`
	VehicleYear     *int   `json:"vehicle_year" binding:"omitempty,min=1900,max=2100"`
	VehicleCharge   string `json:"vehicle_charge" binding:"max=20"`
	PortalUsername  string `json:"portal_username" binding:"max=100"`
	PortalPassword  string `json:"portal_password" binding:"max=100"`
	PaymentLink     string `json:"payment_link" binding:"omitempty,url,max=500"`
	Notes           string `json:"notes" binding:"max=2000"`
}

func (r AccountDetailsRequest) toDomain() payables.AccountDetails {
	return payables.AccountDetails{
		SupplierName:    r.SupplierName,
		SupplierTaxID:   r.SupplierTaxID,
		PaymentType:     payables.PaymentType(r.PaymentType),
		PixHolderName:   r.PixHolderName,
		PixKey:          r.PixKey,
		BankBranch:      r.BankBranch,
		BankAccountType: payables.BankAccountType(r.BankAccountType),
		OriginBank:      r.OriginBank,
		VehicleModel:    r.VehicleModel,
		VehiclePlate:    r.VehiclePlate,
		VehicleRenavam:  r.VehicleRenavam,
		VehicleYear:     r.VehicleYear,
		VehicleCharge:   payables.VehicleCharge(r.VehicleCharge),
		PortalUsername:  r.PortalUsername,
		PortalPassword:  r.PortalPassword,
		PaymentLink:     r.PaymentLink,
		Notes:           r.Notes,
	}
}

const dateFormatHint = "must be a date as yyyy-mm-dd or dd/mm/yyyy"

// AccountRequest is the body of account create and update.
// Dates accept yyyy-mm-dd or dd/mm/yyyy.
type AccountRequest struct {
	Name                 string                `json:"name" binding:"required,max=200"`
	GroupID              string                `json:"group_id" binding:"required,uuid"`
	Kind                 string                `json:"kind" binding:"required,oneof=fixed variable"`
	Recurrence           string                `json:"recurrence" binding:"required,oneof=once monthly bimonthly quarterly semiannual annual"`
	Amount               decimal.Decimal       `json:"amount" binding:"gt=0"`
	DueDate              string                `json:"due_date" binding:"required"`
	AlertLeadDays        int                   `json:"alert_lead_days" binding:"gte=0,lte=60"`
	ConfirmationPhone    string                `json:"confirmation_phone" binding:"max=20"`
	AlertPhone           string                `json:"alert_phone" binding:"max=20"`
	ConfirmationTemplate string                `json:"confirmation_template" binding:"max=2000"`
	Details              AccountDetailsRequest `json:"details"`
}

func (r AccountRequest) toInput() (apppayables.AccountInput, error) {
	dueDate, err := payables.ParseDate(r.DueDate)
	if err != nil {
		return apppayables.AccountInput{}, payables.ErrInvalidDate.WithField("due_date", dateFormatHint)
	}
	return apppayables.AccountInput{
		Name:                 r.Name,
		GroupID:              uuid.MustParse(r.GroupID),
		Kind:                 payables.AccountKind(r.Kind),
		Recurrence:           payables.Recurrence(r.Recurrence),
		Amount:               r.Amount,
		DueDate:              dueDate,
		AlertLeadDays:        r.AlertLeadDays,
		ConfirmationPhone:    r.ConfirmationPhone,
		AlertPhone:           r.AlertPhone,
		ConfirmationTemplate: r.ConfirmationTemplate,
		Details:              r.Details.toDomain(),
	}, nil
}

// AccountListQuery holds the account list filters
type AccountListQuery struct {
	dto.ListRequest
	Name       string `form:"name"`
	GroupID    string `form:"group_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=on_time due_soon due_today overdue"`
	Recurrence string `form:"recurrence" binding:"omitempty,oneof=once monthly bimonthly quarterly semiannual annual"`
	Kind       string `form:"kind" binding:"omitempty,oneof=fixed variable"`
	Paid       string `form:"paid" binding:"omitempty,boolean"`
	Active     string `form:"active" binding:"omitempty,boolean"`
}

// MarkPaidRequest is the optional body of mark-paid
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date"`
	Note        string `json:"note" binding:"max=1000"`
}

// HistoryListQuery holds the payment history filters
type HistoryListQuery struct {
	dto.ListRequest
	AccountID string `form:"account_id" binding:"omitempty,uuid"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// FieldGroupsResponse lists the account form sections in display order
type FieldGroupsResponse struct {
	Groups []payables.FieldGroup `json:"groups"`
}
