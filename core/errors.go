package core

// These errors are user errors (compile errors and use errors, in the
// terminology of the design), not internal engine faults.

import (
	"fmt"
)

// FactHasVariables occurs when add_fact is given a fact that contains a
// pattern variable somewhere in its positional values or attributes.
type FactHasVariables struct {
	Path string
}

func (e FactHasVariables) Error() string {
	return fmt.Sprintf("fact contains a variable at %s", e.Path)
}

// UnknownFact occurs when remove_fact or update_fact is given a fact-id
// that isn't currently in working memory.
type UnknownFact struct {
	FactId int64
}

func (e UnknownFact) Error() string {
	return fmt.Sprintf("unknown fact id %d", e.FactId)
}

// UnknownProduction occurs when remove_production is given a production
// that was never added (or was already removed).
type UnknownProduction struct {
	Name string
}

func (e UnknownProduction) Error() string {
	return fmt.Sprintf("unknown production %q", e.Name)
}

// UnboundVariable occurs at compile time when a TEST or BIND condition
// refers to a variable that no strictly earlier positive condition in
// the same conjunction binds. An action's formals are reported as
// UnknownFormalParameter instead.
type UnboundVariable struct {
	Production string
	Variable   string
}

func (e UnboundVariable) Error() string {
	return fmt.Sprintf("production %q: unbound variable %q", e.Production, e.Variable)
}

// DuplicateVariable occurs at compile time when a BIND condition names a
// variable that an earlier condition in the same conjunction already
// bound.
type DuplicateVariable struct {
	Production string
	Variable   string
}

func (e DuplicateVariable) Error() string {
	return fmt.Sprintf("production %q: variable %q already bound", e.Production, e.Variable)
}

// BadPathExpression occurs at compile time when a path-expression
// attribute name has an empty segment (for example "a____b" or a
// trailing "__"). No compile-time check is made that the indexed
// attribute holds a mapping; a path that does not resolve on a WME
// simply fails to match it.
type BadPathExpression struct {
	Production string
	Path       string
}

func (e BadPathExpression) Error() string {
	return fmt.Sprintf("production %q: path expression %q has an empty segment", e.Production, e.Path)
}

// DuplicateProduction occurs when NewProductionSet is given two
// productions with the same name. Engine.AddProduction does not raise
// it: adding a production whose name is present replaces it.
type DuplicateProduction struct {
	Name string
}

func (e DuplicateProduction) Error() string {
	return fmt.Sprintf("production %q already added", e.Name)
}

// StaleMatch occurs when fire is given a conflict-set entry that is no
// longer valid, because the supporting token (or its production) has
// since been retracted.
type StaleMatch struct {
	Production string
}

func (e StaleMatch) Error() string {
	return fmt.Sprintf("match for production %q is no longer valid", e.Production)
}

// UnknownFormalParameter occurs at compile time when a production's
// ActionFormals names a variable its left-hand side does not bind. No
// name is exempt; Test and Bind formals are reported as UnboundVariable.
type UnknownFormalParameter struct {
	Production string
	Parameter  string
}

func (e UnknownFormalParameter) Error() string {
	return fmt.Sprintf("production %q: unknown formal parameter %q", e.Production, e.Parameter)
}

// TestRaised occurs when a Test's or Bind's compiled code returns an
// error while a fact operation is propagating it through the network.
// The token it was evaluated against is dropped, and the fact
// operation that triggered propagation (AddFact, RemoveFact, UpdateFact,
// or AddProduction's bootstrap against existing facts) reports the
// first such error it sees.
type TestRaised struct {
	Production string
	Err        error
}

func (e TestRaised) Error() string {
	return fmt.Sprintf("production %q: test raised: %s", e.Production, e.Err)
}

func (e TestRaised) Unwrap() error {
	return e.Err
}
