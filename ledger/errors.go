/*
errors.go - Centralized error taxonomy for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; the HTTP layer maps these
  onto status codes.

ERROR CATEGORIES:
  1. NotFound          - wallet/transaction/planned-expense missing or inactive
  2. InvalidInput      - non-positive amount, same-wallet transfer, bad date
  3. InsufficientFunds - transfer exceeds source balance plus fee
  4. InvalidLink       - planned-expense link violates its constraints
  5. InvalidRange      - projection target date before today
  6. Unavailable       - storage or text-generation collaborator unreachable

SEE ALSO:
  - ledger.go: Produces these errors
  - forecast: Produces ErrInvalidRange
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced wallet, transaction or
	// planned expense is missing or inactive.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned for malformed mutation requests.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds is returned when a transfer would overdraw the
	// source wallet.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidLink is returned when a planned-expense link violates the
	// remaining-budget or kind constraints.
	ErrInvalidLink = errors.New("invalid planned expense link")

	// ErrInvalidRange is returned when a projection target date lies in the
	// past.
	ErrInvalidRange = errors.New("target date before today")

	// ErrUnavailable is returned when the backing store or an external
	// collaborator cannot be reached in time.
	ErrUnavailable = errors.New("collaborator unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "wallet", "transaction", "planned expense", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found or inactive", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientFundsError provides details about a balance shortage.
type InsufficientFundsError struct {
	WalletID  WalletID
	Available Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in wallet %s: available %v, requested %v",
		e.WalletID, e.Available.Value, e.Requested.Value)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// LinkError provides details about a planned-expense link violation.
type LinkError struct {
	PlannedExpenseID PlannedExpenseID
	Remaining        Money
	Requested        Money
	Reason           string
}

func (e *LinkError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("planned expense %s: %s", e.PlannedExpenseID, e.Reason)
	}
	return fmt.Sprintf("planned expense %s: amount %v exceeds remaining budget %v",
		e.PlannedExpenseID, e.Requested.Value, e.Remaining.Value)
}

func (e *LinkError) Unwrap() error { return ErrInvalidLink }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError reports whether the error is due to invalid client input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidLink) ||
		errors.Is(err, ErrInvalidRange)
}
