package internal

import (
	"strings"

	"github.com/google/uuid"
	kpgerr "github.com/opst/libris/pkg/db/postgres/errors"
)

// NewID issues an identity for a new record.
func NewID() string {
	return uuid.NewString()
}

// CheckID returns Missing when id cannot be an identity of the table.
func CheckID(table string, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return kpgerr.Missing{Table: table, Identity: id}
	}
	return nil
}

// ValidIDs returns ids which can be identities, dropping others.
func ValidIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

// Contains builds a LIKE pattern matching strings containing s.
//
// Wildcards in s are escaped.
func Contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

// NullIfEmpty makes empty string NULL.
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
