package db

import "errors"

var (
	// requested record is not found.
	ErrMissing = errors.New("missing")

	// the operation conflicts with existing records (unique constraint or reference).
	ErrConflict = errors.New("conflict")

	// the record is not in a state accepting the operation.
	ErrInvalidState = errors.New("invalid state")
)

// business rule violations of circulation.
//
// Each of them wraps ErrConflict, so callers which do not care about details
// can handle them as a conflict.
var (
	ErrMemberBlocked    = conflict("member is not active")
	ErrHasPendingFines  = conflict("member has pending fines")
	ErrOverdue          = conflict("loan is overdue")
	ErrLoanLimit        = conflict("loan limit is reached")
	ErrAlreadyBorrowed  = conflict("member already has the book on loan")
	ErrNotAvailable     = conflict("no copies are available")
	ErrReservedByOther  = conflict("copies are reserved by other members")
	ErrRenewLimit       = conflict("renewal limit is reached")
	ErrAlreadyReserved  = conflict("member already has a reservation for the book")
	ErrHasActiveLoans   = conflict("book has copies on loan or on hold")
	ErrCopiesOutOfRange = conflict("total copies cannot be less than copies out")
)

type ruleViolation struct {
	message string
}

func conflict(message string) error {
	return &ruleViolation{message: message}
}

func (r *ruleViolation) Error() string {
	return r.message
}

func (r *ruleViolation) Unwrap() error {
	return ErrConflict
}
