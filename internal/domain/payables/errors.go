package payables

import "github.com/contaspagar/backend/internal/domain/shared"

var (
	ErrAccountNotFound  = shared.NewDomainError("NOT_FOUND", "Account not found")
	ErrGroupNotFound    = shared.NewDomainError("NOT_FOUND", "Account group not found")
	ErrBillingNotFound  = shared.NewDomainError("NOT_FOUND", "Billing record not found")
	ErrHistoryNotFound  = shared.NewDomainError("NOT_FOUND", "Payment history entry not found")
	ErrGroupHasAccounts = shared.NewDomainError("HAS_DEPENDENTS", "Account group still has accounts and cannot be deleted")
	ErrGroupNameTaken   = shared.NewDomainError("ALREADY_EXISTS", "An account group with this name already exists")
	ErrBillingMonthUsed = shared.NewDomainError("ALREADY_EXISTS", "A billing record already exists for this reference month")

	ErrInvalidDate    = shared.NewDomainError("INVALID_INPUT", "Invalid date")
	ErrInvalidAmount  = shared.NewDomainError("INVALID_INPUT", "Invalid monetary amount")
	ErrMissingDueDate = shared.NewDomainError("INVALID_INPUT", "Account has no due date")
	ErrMissingPayDate = shared.NewDomainError("INVALID_INPUT", "Payment date is required")
	ErrAccountClosed  = shared.NewDomainError("INVALID_STATE", "Account is closed")
	ErrAccountPaid    = shared.NewDomainError("INVALID_STATE", "Account is already paid")
)
