// Package criteria expresses the conjunctive column/operator/value
// constraints every read operation of the expense store is parameterized
// with. Listing, counting, summing and grouped aggregation all share this
// one filter representation instead of growing bespoke query builders.
package criteria

import (
	"errors"
	"fmt"
	"strings"
)

// Op is a comparison operator applied between a column and a value.
type Op string

const (
	OpEq   Op = "="
	OpGt   Op = ">"
	OpLt   Op = "<"
	OpGte  Op = ">="
	OpLte  Op = "<="
	OpNeq  Op = "<>"
	OpLike Op = "LIKE"
)

var validOps = map[Op]bool{
	OpEq: true, OpGt: true, OpLt: true,
	OpGte: true, OpLte: true, OpNeq: true, OpLike: true,
}

// Clause is a single column/operator/value constraint.
type Clause struct {
	Column string
	Op     Op
	Value  any
}

// Criteria is an ordered set of clauses combined with logical AND.
// Insertion order is irrelevant to semantics but preserved when generating
// placeholders, so two clauses on the same column (a half-open date range)
// stay distinct and never collide.
type Criteria struct {
	clauses []Clause
}

// New returns empty criteria matching every row.
func New() *Criteria {
	return &Criteria{}
}

// Where appends a clause and returns the criteria for chaining.
func (c *Criteria) Where(column string, op Op, value any) *Criteria {
	c.clauses = append(c.clauses, Clause{Column: column, Op: op, Value: value})
	return c
}

// Clauses returns the clauses in insertion order.
func (c *Criteria) Clauses() []Clause {
	return c.clauses
}

// Empty reports whether no clauses were added.
func (c *Criteria) Empty() bool {
	return len(c.clauses) == 0
}

var errNoClauses = errors.New("criteria has no clauses")

// Build emits a parameterized WHERE fragment ("a = ? AND b >= ?") and the
// argument list in clause order. Column names are restricted to plain
// identifiers and operators to the known set; values only ever travel as
// bind parameters, never concatenated into the statement.
func (c *Criteria) Build() (string, []any, error) {
	if c.Empty() {
		return "", nil, errNoClauses
	}

	conds := make([]string, 0, len(c.clauses))
	args := make([]any, 0, len(c.clauses))
	for _, cl := range c.clauses {
		if !validIdentifier(cl.Column) {
			return "", nil, fmt.Errorf("invalid column name %q", cl.Column)
		}
		if !validOps[cl.Op] {
			return "", nil, fmt.Errorf("invalid operator %q", string(cl.Op))
		}
		conds = append(conds, cl.Column+" "+string(cl.Op)+" ?")
		args = append(args, cl.Value)
	}

	return strings.Join(conds, " AND "), args, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
