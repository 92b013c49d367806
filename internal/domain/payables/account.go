package payables

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeAccount = "Account"

	maxAccountNameLength = 200
)

// AccountDetails holds the supplier, payment, vehicle and access data kept with an account.
// None of it affects status or recurrence.
type AccountDetails struct {
	SupplierName    string
	SupplierTaxID   string
	PaymentType     PaymentType
	PixHolderName   string
	PixKey          string
	BankBranch      string
	BankAccountType BankAccountType
	OriginBank      string
	VehicleModel    string
	VehiclePlate    string
	VehicleRenavam  string
	VehicleYear     *int
	VehicleCharge   VehicleCharge
	PortalUsername  string
	PortalPassword  string
	PaymentLink     string
	Notes           string
}

// Account is a payable bill. Recurring accounts are rolled forward in place when paid.
type Account struct {
	shared.BaseAggregateRoot
	Name                 string
	GroupID              uuid.UUID
	GroupName            string
	Kind                 AccountKind
	Recurrence           Recurrence
	Amount               decimal.Decimal
	DueDate              time.Time
	Paid                 bool
	PaymentDate          *time.Time
	Status               AccountStatus
	AlertLeadDays        int
	ConfirmationPhone    string
	AlertPhone           string
	ConfirmationTemplate string
	Active               bool
	Details              AccountDetails
}

// AccountParams carries the editable fields of an account
type AccountParams struct {
	Name                 string
	GroupID              uuid.UUID
	Kind                 AccountKind
	Recurrence           Recurrence
	Amount               decimal.Decimal
	DueDate              time.Time
	AlertLeadDays        int
	ConfirmationPhone    string
	AlertPhone           string
	ConfirmationTemplate string
	Details              AccountDetails
}

// NewAccount validates params and creates an unpaid active account whose status
// already reflects today.
func NewAccount(p AccountParams, today time.Time) (*Account, error) {
	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Active:            true,
	}
	if err := a.apply(p); err != nil {
		return nil, err
	}
	a.Status = ComputeStatus(a.DueDate, a.AlertLeadDays, today)
	return a, nil
}

// Update replaces the editable fields and recomputes the status of unpaid accounts
func (a *Account) Update(p AccountParams, today time.Time) error {
	if err := a.apply(p); err != nil {
		return err
	}
	if !a.Paid {
		a.Status = ComputeStatus(a.DueDate, a.AlertLeadDays, today)
	}
	a.Touch()
	return nil
}

func (a *Account) apply(p AccountParams) error {
	if err := validateAccountParams(&p); err != nil {
		return err
	}
	if a.GroupID != p.GroupID {
		a.GroupName = ""
	}
	a.Name = p.Name
	a.GroupID = p.GroupID
	a.Kind = p.Kind
	a.Recurrence = p.Recurrence
	a.Amount = p.Amount.Round(MoneyPlaces)
	a.DueDate = NormalizeDate(p.DueDate)
	a.AlertLeadDays = p.AlertLeadDays
	a.ConfirmationPhone = p.ConfirmationPhone
	a.AlertPhone = p.AlertPhone
	a.ConfirmationTemplate = p.ConfirmationTemplate
	a.Details = p.Details
	return nil
}

// RefreshStatus recomputes the cached status for today.
// Paid and closed accounts are left alone, and overdue is final for the cycle:
// only a payment or an edit of the account clears it. changed is false when
// nothing moved.
func (a *Account) RefreshStatus(today time.Time) (transition StatusTransition, changed bool, err error) {
	if a.DueDate.IsZero() {
		return StatusTransition{}, false, ErrMissingDueDate
	}
	if a.Paid || !a.Active || a.Status == StatusOverdue {
		return StatusTransition{}, false, nil
	}
	next := ComputeStatus(a.DueDate, a.AlertLeadDays, today)
	if next == a.Status {
		return StatusTransition{}, false, nil
	}
	transition = StatusTransition{
		AccountID: a.ID,
		From:      a.Status,
		To:        next,
		DueDate:   a.DueDate,
	}
	a.Status = next
	a.Touch()
	a.AddDomainEvent(NewAccountStatusChangedEvent(a, transition.From, today))
	return transition, true, nil
}

// MarkPaid records a payment made on paymentDate and returns its history snapshot.
// Recurring accounts roll forward to the next occurrence as unpaid and on time;
// one-off accounts keep their due date and are closed.
func (a *Account) MarkPaid(paymentDate time.Time, note string) (*PaymentHistory, error) {
	if !a.Active {
		return nil, ErrAccountClosed
	}
	if a.Paid {
		return nil, ErrAccountPaid
	}
	if a.DueDate.IsZero() {
		return nil, ErrMissingDueDate
	}
	if paymentDate.IsZero() {
		return nil, ErrMissingPayDate
	}

	history := newPaymentHistory(a, paymentDate, note)
	previousDue := a.DueDate

	if a.Recurrence.IsRecurring() {
		a.Paid = false
		a.PaymentDate = nil
		a.Status = StatusOnTime
		a.DueDate = NextDueDate(a.Recurrence, a.DueDate)
	} else {
		paid := NormalizeDate(paymentDate)
		a.Paid = true
		a.PaymentDate = &paid
		a.Status = StatusOnTime
		a.Active = false
	}
	a.Touch()
	a.AddDomainEvent(NewAccountPaidEvent(a, history, previousDue))
	return history, nil
}

// Closed reports whether a one-off account has been settled
func (a *Account) Closed() bool {
	return !a.Active
}

// WantsConfirmation reports whether a payment confirmation should be sent
func (a *Account) WantsConfirmation() bool {
	return a.ConfirmationPhone != "" && strings.TrimSpace(a.ConfirmationTemplate) != ""
}

func validateAccountParams(p *AccountParams) error {
	p.Name = strings.TrimSpace(p.Name)
	p.ConfirmationTemplate = strings.TrimSpace(p.ConfirmationTemplate)

	var invalid *shared.DomainError
	fail := func(field, reason string) {
		if invalid == nil {
			invalid = shared.ErrInvalidInput
		}
		invalid = invalid.WithField(field, reason)
	}

	switch {
	case p.Name == "":
		fail("name", "is required")
	case utf8.RuneCountInString(p.Name) > maxAccountNameLength:
		fail("name", "must be at most 200 characters")
	}
	if p.GroupID == uuid.Nil {
		fail("group_id", "is required")
	}
	if !p.Kind.IsValid() {
		fail("kind", "must be fixed or variable")
	}
	if !p.Recurrence.IsValid() {
		fail("recurrence", "must be one of once, monthly, bimonthly, quarterly, semiannual, annual")
	}
	if !p.Amount.Round(MoneyPlaces).IsPositive() {
		fail("amount", "must be greater than zero")
	}
	if p.DueDate.IsZero() {
		fail("due_date", "is required")
	}
	if p.AlertLeadDays < 0 {
		fail("alert_lead_days", "must not be negative")
	}

	var err error
	if p.ConfirmationPhone, err = NormalizePhone(p.ConfirmationPhone); err != nil {
		fail("confirmation_phone", err.Error())
	}
	if p.AlertPhone, err = NormalizePhone(p.AlertPhone); err != nil {
		fail("alert_phone", err.Error())
	}

	d := &p.Details
	if !d.PaymentType.IsValid() {
		fail("payment_type", "is not a known payment type")
	}
	if !d.BankAccountType.IsValid() {
		fail("bank_account_type", "must be corrente, poupanca or pix")
	}
	if !IsValidBank(d.OriginBank) {
		fail("origin_bank", "is not a known bank")
	}
	if !d.VehicleCharge.IsValid() {
		fail("vehicle_charge", "must be ipva, multa or ipva+multa")
	}
	if d.VehicleYear != nil && (*d.VehicleYear < 1900 || *d.VehicleYear > 2100) {
		fail("vehicle_year", "must be between 1900 and 2100")
	}
	if d.PaymentLink != "" {
		if u, perr := url.Parse(d.PaymentLink); perr != nil || u.Scheme == "" || u.Host == "" {
			fail("payment_link", "must be an absolute URL")
		}
	}

	if invalid != nil {
		return invalid
	}
	return nil
}
