package payables

import "time"

// Recurrence is the period after which a paid account's due date advances
type Recurrence string

const (
	RecurrenceOnce       Recurrence = "once"
	RecurrenceMonthly    Recurrence = "monthly"
	RecurrenceBimonthly  Recurrence = "bimonthly"
	RecurrenceQuarterly  Recurrence = "quarterly"
	RecurrenceSemiannual Recurrence = "semiannual"
	RecurrenceAnnual     Recurrence = "annual"
)

var recurrenceMonths = map[Recurrence]int{
	RecurrenceOnce:       0,
	RecurrenceMonthly:    1,
	RecurrenceBimonthly:  2,
	RecurrenceQuarterly:  3,
	RecurrenceSemiannual: 6,
	RecurrenceAnnual:     12,
}

// IsValid reports whether r is a known recurrence
func (r Recurrence) IsValid() bool {
	_, ok := recurrenceMonths[r]
	return ok
}

// Months returns the number of calendar months between occurrences
func (r Recurrence) Months() int {
	return recurrenceMonths[r]
}

// IsRecurring is false only for one-off accounts
func (r Recurrence) IsRecurring() bool {
	return r.Months() > 0
}

// Label returns the display label
func (r Recurrence) Label() string {
	switch r {
	case RecurrenceOnce:
		return "Única"
	case RecurrenceMonthly:
		return "Mensal"
	case RecurrenceBimonthly:
		return "Bimestral"
	case RecurrenceQuarterly:
		return "Trimestral"
	case RecurrenceSemiannual:
		return "Semestral"
	case RecurrenceAnnual:
		return "Anual"
	}
	return string(r)
}

// NextDueDate advances due by one recurrence period.
// One-off accounts keep their due date; callers close them instead.
func NextDueDate(r Recurrence, due time.Time) time.Time {
	if !r.IsRecurring() {
		return NormalizeDate(due)
	}
	return AddMonthsClamped(due, r.Months())
}

// AddMonthsClamped adds calendar months, clamping the day to the target month's last day
// (Jan 31 + 1 month = Feb 28 or Feb 29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	d := NormalizeDate(t)
	total := d.Year()*12 + int(d.Month()) - 1 + months
	year, month := total/12, time.Month(total%12+1)
	day := d.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysLate returns max(0, payment - due) in whole days
func DaysLate(due, payment time.Time) int {
	if d := DaysBetween(due, payment); d > 0 {
		return d
	}
	return 0
}
