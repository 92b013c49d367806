package payables

import (
	"strings"
	"time"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillingChannels splits a month's revenue by sales channel
type BillingChannels struct {
	Store         decimal.Decimal
	ModoBankPix   decimal.Decimal
	ModoBankCard  decimal.Decimal
	EfiBankBoleto decimal.Decimal
	CelcoinCard   decimal.Decimal
	CardMachine   decimal.Decimal
}

// Sum adds all channel amounts
func (c BillingChannels) Sum() decimal.Decimal {
	return c.Store.Add(c.ModoBankPix).Add(c.ModoBankCard).
		Add(c.EfiBankBoleto).Add(c.CelcoinCard).Add(c.CardMachine)
}

func (c BillingChannels) rounded() BillingChannels {
	return BillingChannels{
		Store:         c.Store.Round(MoneyPlaces),
		ModoBankPix:   c.ModoBankPix.Round(MoneyPlaces),
		ModoBankCard:  c.ModoBankCard.Round(MoneyPlaces),
		EfiBankBoleto: c.EfiBankBoleto.Round(MoneyPlaces),
		CelcoinCard:   c.CelcoinCard.Round(MoneyPlaces),
		CardMachine:   c.CardMachine.Round(MoneyPlaces),
	}
}

// Billing is the revenue snapshot of one reference month
type Billing struct {
	shared.BaseEntity
	ReferenceMonth time.Time
	Channels       BillingChannels
	Gross          decimal.Decimal
	Note           string
}

// BillingParams carries the editable fields of a billing record.
// A zero Gross defaults to the sum of the channels.
type BillingParams struct {
	ReferenceMonth time.Time
	Channels       BillingChannels
	Gross          decimal.Decimal
	Note           string
}

// NewBilling validates params and creates a billing record
func NewBilling(p BillingParams) (*Billing, error) {
	b := &Billing{BaseEntity: shared.NewBaseEntity()}
	if err := b.apply(p); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the editable fields
func (b *Billing) Update(p BillingParams) error {
	if err := b.apply(p); err != nil {
		return err
	}
	b.Touch()
	return nil
}

func (b *Billing) apply(p BillingParams) error {
	var invalid *shared.DomainError
	fail := func(field, reason string) {
		if invalid == nil {
			invalid = shared.ErrInvalidInput
		}
		invalid = invalid.WithField(field, reason)
	}

	if p.ReferenceMonth.IsZero() {
		fail("reference_month", "is required")
	}
	ch := p.Channels.rounded()
	for field, v := range map[string]decimal.Decimal{
		"store":          ch.Store,
		"modobank_pix":   ch.ModoBankPix,
		"modobank_card":  ch.ModoBankCard,
		"efibank_boleto": ch.EfiBankBoleto,
		"celcoin_card":   ch.CelcoinCard,
		"card_machine":   ch.CardMachine,
	} {
		if v.IsNegative() {
			fail(field, "must not be negative")
		}
	}
	gross := p.Gross.Round(MoneyPlaces)
	if gross.IsNegative() {
		fail("gross", "must not be negative")
	}
	if invalid != nil {
		return invalid
	}

	if gross.IsZero() {
		gross = ch.Sum()
	}
	b.ReferenceMonth = MonthStart(p.ReferenceMonth)
	b.Channels = ch
	b.Gross = gross
	b.Note = strings.TrimSpace(p.Note)
	return nil
}

// MonthStart returns the first day of t's month
func MonthStart(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), 1)
}
