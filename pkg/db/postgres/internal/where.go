package internal

import (
	"fmt"
	"strings"
)

// Where builds "where" clause with positional parameters.
type Where struct {
	conds []string
	args  []any
}

// Add adds a condition. "?" in cond is replaced with the positional parameter for arg.
func (w *Where) Add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

// AddRaw adds a condition without parameters.
func (w *Where) AddRaw(cond string) {
	w.conds = append(w.conds, cond)
}

// Param adds arg and returns its placeholder.
func (w *Where) Param(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

// Clause returns "where ..." or empty string when there are no conditions.
func (w *Where) Clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "where " + strings.Join(w.conds, " and ")
}

func (w *Where) Args() []any {
	return w.args
}
