package payables

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the cached due-date urgency of an unpaid account
type AccountStatus string

const (
	StatusOnTime   AccountStatus = "on_time"
	StatusDueSoon  AccountStatus = "due_soon"
	StatusDueToday AccountStatus = "due_today"
	StatusOverdue  AccountStatus = "overdue"
)

// AllStatuses lists statuses in urgency order
func AllStatuses() []AccountStatus {
	return []AccountStatus{StatusOnTime, StatusDueSoon, StatusDueToday, StatusOverdue}
}

// IsValid reports whether s is a known status
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusOnTime, StatusDueSoon, StatusDueToday, StatusOverdue:
		return true
	}
	return false
}

// Label returns the display label
func (s AccountStatus) Label() string {
	switch s {
	case StatusOnTime:
		return "Em Dia"
	case StatusDueSoon:
		return "Próximo a Vencer"
	case StatusDueToday:
		return "Vence Hoje"
	case StatusOverdue:
		return "Em Atraso"
	}
	return string(s)
}

// ComputeStatus classifies an unpaid account due on due as seen on today.
// First match wins: overdue, due today, due within the alert lead, on time.
func ComputeStatus(due time.Time, alertLeadDays int, today time.Time) AccountStatus {
	if alertLeadDays < 0 {
		alertLeadDays = 0
	}
	daysUntil := DaysBetween(today, due)
	switch {
	case daysUntil < 0:
		return StatusOverdue
	case daysUntil == 0:
		return StatusDueToday
	case daysUntil <= alertLeadDays:
		return StatusDueSoon
	default:
		return StatusOnTime
	}
}

// StatusTransition records a status change applied by a scan
type StatusTransition struct {
	AccountID uuid.UUID
	From      AccountStatus
	To        AccountStatus
	DueDate   time.Time
}

// ScanResult summarizes one batch status scan
type ScanResult struct {
	Scanned    int `json:"scanned"`
	ToOnTime   int `json:"to_on_time"`
	ToDueSoon  int `json:"to_due_soon"`
	ToDueToday int `json:"to_due_today"`
	ToOverdue  int `json:"to_overdue"`
	Failed     int `json:"failed"`
}

// Record counts a transition by its target status
func (r *ScanResult) Record(to AccountStatus) {
	switch to {
	case StatusOnTime:
		r.ToOnTime++
	case StatusDueSoon:
		r.ToDueSoon++
	case StatusDueToday:
		r.ToDueToday++
	case StatusOverdue:
		r.ToOverdue++
	}
}

// Changed returns the total number of persisted transitions
func (r ScanResult) Changed() int {
	return r.ToOnTime + r.ToDueSoon + r.ToDueToday + r.ToOverdue
}
