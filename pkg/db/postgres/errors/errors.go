package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kdb "github.com/opst/libris/pkg/db"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return kdb.ErrMissing
}

// the record violates a constraint.
type Conflict struct {
	Constraint string
	Detail     string
	cause      error
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	if c.Detail == "" {
		return fmt.Sprintf("conflicts with %s", c.Constraint)
	}
	return fmt.Sprintf("conflicts with %s: %s", c.Constraint, c.Detail)
}

func (c Conflict) Unwrap() []error {
	return []error{kdb.ErrConflict, c.cause}
}

// Interpret converts errors from pgx to errors of pkg/db.
//
// - pgx.ErrNoRows becomes Missing{table, identity}.
//
// - malformed identities become Missing, too.
//
// - unique and foreign key violations become Conflict, which is ErrConflict.
//
// - others are returned as they are.
func Interpret(err error, table string, identity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Missing{Table: table, Identity: identity}
	}
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		switch pgerr.Code {
		case pgerrcode.InvalidTextRepresentation:
			return Missing{Table: table, Identity: identity}
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation,
			pgerrcode.ExclusionViolation, pgerrcode.CheckViolation:
			return Conflict{Constraint: pgerr.ConstraintName, Detail: pgerr.Detail, cause: err}
		}
	}
	return err
}

// IsForeignKeyViolation tells err is caused by a missing referred record.
func IsForeignKeyViolation(err error) bool {
	pgerr := new(pgconn.PgError)
	return errors.As(err, &pgerr) && pgerr.Code == pgerrcode.ForeignKeyViolation
}
