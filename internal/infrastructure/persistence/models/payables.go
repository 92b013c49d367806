package models

import (
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountGroupModel is the persistence model for the Group domain entity.
type AccountGroupModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountGroupModel) TableName() string {
	return "account_groups"
}

// ToDomain converts the persistence model to a domain Group
func (m *AccountGroupModel) ToDomain() *payables.Group {
	return &payables.Group{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
	}
}

// FromDomain populates the persistence model from a domain Group
func (m *AccountGroupModel) FromDomain(g *payables.Group) {
	m.FromDomainBaseEntity(g.BaseEntity)
	m.Name = g.Name
	m.Description = g.Description
	m.Active = g.Active
}

// AccountModel is the persistence model for the Account aggregate.
// SearchName holds the accent-folded name used by the name filter.
type AccountModel struct {
	BaseModel
	Name                 string                   `gorm:"type:varchar(200);not null"`
	SearchName           string                   `gorm:"type:varchar(200);not null;index"`
	GroupID              uuid.UUID                `gorm:"type:uuid;not null;index"`
	GroupName            string                   `gorm:"->;-:migration"`
	Kind                 payables.AccountKind     `gorm:"type:varchar(20);not null"`
	Recurrence           payables.Recurrence      `gorm:"type:varchar(20);not null"`
	Amount               decimal.Decimal          `gorm:"type:numeric(14,2);not null"`
	DueDate              time.Time                `gorm:"type:date;not null;index"`
	Paid                 bool                     `gorm:"not null;default:false"`
	PaymentDate          *time.Time               `gorm:"type:date"`
	Status               payables.AccountStatus   `gorm:"type:varchar(20);not null;index"`
	AlertLeadDays        int                      `gorm:"not null;default:0"`
	ConfirmationPhone    string                   `gorm:"type:varchar(20)"`
	AlertPhone           string                   `gorm:"type:varchar(20)"`
	ConfirmationTemplate string                   `gorm:"type:text"`
	Active               bool                     `gorm:"not null;default:true;index"`
	SupplierName         string                   `gorm:"type:varchar(200)"`
	SupplierTaxID        string                   `gorm:"type:varchar(20)"`
	PaymentType          payables.PaymentType     `gorm:"type:varchar(30)"`
	PixHolderName        string                   `gorm:"type:varchar(200)"`
	PixKey               string                   `gorm:"type:varchar(200)"`
	BankBranch           string                   `gorm:"type:varchar(20)"`
	BankAccountType      payables.BankAccountType `gorm:"type:varchar(20)"`
	OriginBank           string                   `gorm:"type:varchar(10)"`
	VehicleModel         string                   `gorm:"type:varchar(100)"`
	VehiclePlate         string                   `gorm:"type:varchar(10)"`
	VehicleRenavam       string                   `gorm:"type:varchar(20)"`
	VehicleYear          *int
	VehicleCharge        payables.VehicleCharge `gorm:"type:varchar(20)"`
	PortalUsername       string                 `gorm:"type:varchar(150)"`
	PortalPassword       string                 `gorm:"type:varchar(150)"`
	PaymentLink          string                 `gorm:"type:varchar(500)"`
	Notes                string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *payables.Account {
	a := &payables.Account{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Name:              m.Name,
		GroupID:           m.GroupID,
		GroupName:         m.GroupName,
		Kind:              m.Kind,
		Recurrence:        m.Recurrence,
		Amount:            m.Amount,
		DueDate:           payables.NormalizeDate(m.DueDate),
		Paid:              m.Paid,
		Status:            m.Status,
		AlertLeadDays:     m.AlertLeadDays,
		ConfirmationPhone: m.ConfirmationPhone,
		AlertPhone:        m.AlertPhone,
		Active:            m.Active,
		Details: payables.AccountDetails{
			SupplierName:    m.SupplierName,
			SupplierTaxID:   m.SupplierTaxID,
			PaymentType:     m.PaymentType,
			PixHolderName:   m.PixHolderName,
			PixKey:          m.PixKey,
			BankBranch:      m.BankBranch,
			BankAccountType: m.BankAccountType,
			OriginBank:      m.OriginBank,
			VehicleModel:    m.VehicleModel,
			VehiclePlate:    m.VehiclePlate,
			VehicleRenavam:  m.VehicleRenavam,
			VehicleYear:     m.VehicleYear,
			VehicleCharge:   m.VehicleCharge,
			PortalUsername:  m.PortalUsername,
			PortalPassword:  m.PortalPassword,
			PaymentLink:     m.PaymentLink,
			Notes:           m.Notes,
		},
		ConfirmationTemplate: m.ConfirmationTemplate,
	}
	if m.PaymentDate != nil {
		d := payables.NormalizeDate(*m.PaymentDate)
		a.PaymentDate = &d
	}
	return a
}

// FromDomain populates the persistence model from a domain Account
func (m *AccountModel) FromDomain(a *payables.Account) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Name = a.Name
	m.SearchName = payables.FoldForSearch(a.Name)
	m.GroupID = a.GroupID
	m.GroupName = a.GroupName
	m.Kind = a.Kind
	m.Recurrence = a.Recurrence
	m.Amount = a.Amount
	m.DueDate = a.DueDate
	m.Paid = a.Paid
	m.PaymentDate = a.PaymentDate
	m.Status = a.Status
	m.AlertLeadDays = a.AlertLeadDays
	m.ConfirmationPhone = a.ConfirmationPhone
	m.AlertPhone = a.AlertPhone
	m.ConfirmationTemplate = a.ConfirmationTemplate
	m.Active = a.Active

	d := a.Details
	m.SupplierName = d.SupplierName
	m.SupplierTaxID = d.SupplierTaxID
	m.PaymentType = d.PaymentType
	m.PixHolderName = d.PixHolderName
	m.PixKey = d.PixKey
	m.BankBranch = d.BankBranch
	m.BankAccountType = d.BankAccountType
	m.OriginBank = d.OriginBank
	m.VehicleModel = d.VehicleModel
	m.VehiclePlate = d.VehiclePlate
	m.VehicleRenavam = d.VehicleRenavam
	m.VehicleYear = d.VehicleYear
	m.VehicleCharge = d.VehicleCharge
	m.PortalUsername = d.PortalUsername
	m.PortalPassword = d.PortalPassword
	m.PaymentLink = d.PaymentLink
	m.Notes = d.Notes
}

// AccountModelFromDomain creates a new persistence model from a domain Account
func AccountModelFromDomain(a *payables.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// BillingModel is the persistence model for the Billing domain entity.
// One row per reference month.
type BillingModel struct {
	BaseModel
	ReferenceMonth time.Time       `gorm:"type:date;not null;uniqueIndex"`
	Store          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ModoBankPix    decimal.Decimal `gorm:"column:modobank_pix;type:numeric(14,2);not null;default:0"`
	ModoBankCard   decimal.Decimal `gorm:"column:modobank_card;type:numeric(14,2);not null;default:0"`
	EfiBankBoleto  decimal.Decimal `gorm:"column:efibank_boleto;type:numeric(14,2);not null;default:0"`
	CelcoinCard    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CardMachine    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Gross          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Note           string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BillingModel) TableName() string {
	return "billings"
}

// ToDomain converts the persistence model to a domain Billing
func (m *BillingModel) ToDomain() *payables.Billing {
	return &payables.Billing{
		BaseEntity:     m.BaseModel.ToDomain(),
		ReferenceMonth: payables.NormalizeDate(m.ReferenceMonth),
		Channels: payables.BillingChannels{
			Store:         m.Store,
			ModoBankPix:   m.ModoBankPix,
			ModoBankCard:  m.ModoBankCard,
			EfiBankBoleto: m.EfiBankBoleto,
			CelcoinCard:   m.CelcoinCard,
			CardMachine:   m.CardMachine,
		},
		Gross: m.Gross,
		Note:  m.Note,
	}
}

// FromDomain populates the persistence model from a domain Billing
func (m *BillingModel) FromDomain(b *payables.Billing) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.ReferenceMonth = b.ReferenceMonth
	m.Store = b.Channels.Store
	m.ModoBankPix = b.Channels.ModoBankPix
	m.ModoBankCard = b.Channels.ModoBankCard
	m.EfiBankBoleto = b.Channels.EfiBankBoleto
	m.CelcoinCard = b.Channels.CelcoinCard
	m.CardMachine = b.Channels.CardMachine
	m.Gross = b.Gross
	m.Note = b.Note
}

// BillingModelFromDomain creates a new persistence model from a domain Billing
func BillingModelFromDomain(b *payables.Billing) *BillingModel {
	m := &BillingModel{}
	m.FromDomain(b)
	return m
}

// PaymentHistoryModel is the persistence model for PaymentHistory.
// AccountID is indexed but not a foreign key: entries outlive their account.
type PaymentHistoryModel struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey"`
	AccountID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	AccountName   string               `gorm:"type:varchar(200);not null"`
	GroupID       uuid.UUID            `gorm:"type:uuid"`
	GroupName     string               `gorm:"type:varchar(100)"`
	Amount        decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	DueDate       time.Time            `gorm:"type:date;not null"`
	PaymentDate   time.Time            `gorm:"type:date;not null;index"`
	DaysLate      int                  `gorm:"not null;default:0"`
	PaymentMethod payables.PaymentType `gorm:"type:varchar(30)"`
	Note          string               `gorm:"type:text"`
	CreatedAt     time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentHistoryModel) TableName() string {
	return "payment_history"
}

// ToDomain converts the persistence model to a domain PaymentHistory
func (m *PaymentHistoryModel) ToDomain() *payables.PaymentHistory {
	return &payables.PaymentHistory{
		ID:            m.ID,
		AccountID:     m.AccountID,
		AccountName:   m.AccountName,
		GroupID:       m.GroupID,
		GroupName:     m.GroupName,
		Amount:        m.Amount,
		DueDate:       payables.NormalizeDate(m.DueDate),
		PaymentDate:   payables.NormalizeDate(m.PaymentDate),
		DaysLate:      m.DaysLate,
		PaymentMethod: m.PaymentMethod,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

// PaymentHistoryModelFromDomain creates a new persistence model from a domain PaymentHistory
func PaymentHistoryModelFromDomain(h *payables.PaymentHistory) *PaymentHistoryModel {
	return &PaymentHistoryModel{
		ID:            h.ID,
		AccountID:     h.AccountID,
		AccountName:   h.AccountName,
		GroupID:       h.GroupID,
		GroupName:     h.GroupName,
		Amount:        h.Amount,
		DueDate:       h.DueDate,
		PaymentDate:   h.PaymentDate,
		DaysLate:      h.DaysLate,
		PaymentMethod: h.PaymentMethod,
		Note:          h.Note,
		CreatedAt:     h.CreatedAt,
	}
}
