/*
errors.go - Centralized error types for the folio engine

ERROR CATEGORIES:
  1. Validation errors - user-correctable, abort the single operation
  2. Authorization errors - refusals (manager approval)
  3. Not-found errors - missing records
  4. Store errors - persistence failures; these abort the enclosing transaction

Advisory failures (credit guard, stock deduction, standing credit,
notifications) never surface as errors; they are logged by the caller.

USAGE:
  if errors.Is(err, folio.ErrOutstandingBalance) { ... }
  var conflict *folio.ConflictError
  if errors.As(err, &conflict) { ... conflict.Existing ... }
*/
package folio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFolioClosed is returned when posting to a Closed or Cancelled folio.
	ErrFolioClosed = errors.New("folio is closed or cancelled")

	// ErrUnvoid is returned when is_void would go from true to false.
	ErrUnvoid = errors.New("cannot un-void a transaction; post a correction instead")

	// ErrAlreadyVoid is returned when voiding a void transaction.
	ErrAlreadyVoid = errors.New("transaction is already void")

	// ErrInvoiced is returned when mutating or voiding an invoiced transaction.
	ErrInvoiced = errors.New("transaction is invoiced")

	// ErrOutstandingBalance is returned when a close or checkout would leave a
	// non-zero balance behind.
	ErrOutstandingBalance = errors.New("outstanding balance")

	// ErrInvalidDates is returned for arrival >= departure or inverted windows.
	ErrInvalidDates = errors.New("invalid date range")

	// ErrRoomUnavailable is returned for disabled, out-of-order or double-booked rooms.
	ErrRoomUnavailable = errors.New("room unavailable")

	// ErrInvalidTransition is returned when a state machine refuses a transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrFolioHasTransactions is returned when deleting a folio with history.
	ErrFolioHasTransactions = errors.New("folio has transactions; cancel it instead")

	// ErrDuplicateMaster is returned when a second Open company master is created.
	ErrDuplicateMaster = errors.New("an open master folio already exists")

	// ErrMissingCompany is returned when a required company/master payer is unset.
	ErrMissingCompany = errors.New("company is required")

	// ErrNothingToInvoice is returned when a folio has no unbilled transactions.
	ErrNothingToInvoice = errors.New("no unbilled transactions to invoice")

	// ErrInvalidInput is returned for malformed requests (bad bill_to, empty ids).
	ErrInvalidInput = errors.New("invalid input")

	// ErrApprovalRequired is the authorization refusal for restricted reason codes.
	ErrApprovalRequired = errors.New("manager approval required")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BalanceError reports a balance guard refusal.
type BalanceError struct {
	FolioID FolioID
	Balance decimal.Decimal
	Action  string
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("cannot %s: outstanding balance of %s remains on folio %s",
		e.Action, e.Balance.StringFixed(2), e.FolioID)
}

func (e *BalanceError) Unwrap() error { return ErrOutstandingBalance }

// TransitionError reports a refused state change.
type TransitionError struct {
	Kind   string // "folio", "reservation", "group booking"
	ID     string
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: cannot move from %q to %q", e.Kind, e.ID, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError names the reservation that already holds a room.
type ConflictError struct {
	Room      RoomID
	Existing  ReservationID
	Guest     GuestID
	Arrival   Date
	Departure Date
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s is already booked by %s from %s to %s (reservation: %s)",
		e.Room, e.Guest, e.Arrival, e.Departure, e.Existing)
}

func (e *ConflictError) Unwrap() error { return ErrRoomUnavailable }

// AvailabilityError aggregates every problem found by a bulk availability
// check into one report.
type AvailabilityError struct {
	Problems []string
}

func (e *AvailabilityError) Error() string {
	var b strings.Builder
	b.WriteString("the following availability issues were found:")
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

func (e *AvailabilityError) Unwrap() error { return ErrRoomUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is user-correctable.
func IsValidation(err error) bool {
	return errors.Is(err, ErrFolioClosed) ||
		errors.Is(err, ErrUnvoid) ||
		errors.Is(err, ErrAlreadyVoid) ||
		errors.Is(err, ErrInvoiced) ||
		errors.Is(err, ErrOutstandingBalance) ||
		errors.Is(err, ErrInvalidDates) ||
		errors.Is(err, ErrRoomUnavailable) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrFolioHasTransactions) ||
		errors.Is(err, ErrDuplicateMaster) ||
		errors.Is(err, ErrMissingCompany) ||
		errors.Is(err, ErrNothingToInvoice) ||
		errors.Is(err, ErrInvalidInput)
}

// IsAuthorization returns true for approval refusals.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrApprovalRequired)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// NotFound builds a not-found error for stores.
func NotFound(kind, id string) error { return notFound(kind, id) }
