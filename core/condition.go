package core

// Condition is one node of a production's left-hand side, before
// compilation into the shared beta network. The concrete types below
// — Pattern, Test, Bind, Not, And, Or — are the only implementations;
// NetworkBuilder switches on concrete type rather than through a
// method, since compilation needs to see each shape's specific fields.
type Condition interface {
	conditionSealed()
}

// PatternField is one attribute test within a Pattern: either a
// constant the matching WME's value must equal, or a variable (in any
// of the forms described in §4.1) the matching WME's value is bound
// to.
type PatternField struct {
	Attr  string
	Value Value // a constant Value, or a "?"/"?$"-prefixed variable name
}

// Pattern is a positive condition: it matches any WME set belonging
// to one fact that satisfies every field's test, binding pattern
// variables to the values found.
type Pattern struct {
	Fields []PatternField
}

func (Pattern) conditionSealed() {}

// Field is a convenience constructor for one PatternField.
func Field(attr string, value Value) PatternField { return PatternField{Attr: attr, Value: value} }

// NewPattern builds a Pattern from a list of fields.
func NewPattern(fields ...PatternField) Pattern { return Pattern{Fields: fields} }

// Not is a negative condition (§4.3): it holds exactly when its Inner
// condition has no matching extension of the current bindings. Inner
// is a Pattern for a simple negated condition, or an And for a negated
// conjunctive condition (NCC).
type Not struct {
	Inner Condition
}

func (Not) conditionSealed() {}

// And is a conjunction of conditions, matched left to right.
type And struct {
	Conds []Condition
}

func (And) conditionSealed() {}

// Or is a disjunction of conditions. A production whose left-hand side
// contains an Or is compiled (via ToDNF) into one beta chain per
// disjunct, all feeding the production's single terminal node, each
// sharing whatever beta-network prefix its conditions have in common
// with the others, per §4.1.
type Or struct {
	Conds []Condition
}

func (Or) conditionSealed() {}

// Test is a boolean side condition (§4.5): it holds when invoking its
// ActionSource's compiled code with the named formal bindings returns
// a truthy value. A Test introduces no new bindings.
type Test struct {
	Formals []string
	Source  ActionSource
}

func (Test) conditionSealed() {}

// Bind is a value-introducing condition (§4.5): it evaluates its
// ActionSource's compiled code against the named formal bindings and
// binds the result to Variable.
type Bind struct {
	Variable string
	Formals  []string
	Source   ActionSource
}

func (Bind) conditionSealed() {}

// ToDNF rewrites c into an equivalent list of Conditions, none of
// which contain an Or outside a Not, by distributing And over Or
// (§4.1). A production with no Or anywhere in its left-hand side
// returns a single-element list: a Pattern, Test or Bind as is, and an
// And with its nested Ands flattened.
func ToDNF(c Condition) []Condition {
	switch cc := c.(type) {
	case Pattern, Test, Bind:
		return []Condition{cc}
	case Not:
		// Negation is not distributed over Or: Not's inner Or, if
		// any, is kept as one Or beneath the Not rather than expanded
		// into alternative negations. The network builder does not
		// compile an Or inside a Not; Compile rejects it as an
		// unsupported condition.
		return []Condition{Not{Inner: flattenAnd(ToDNF(cc.Inner))}}
	case And:
		return distributeAnd(flattenNestedAnd(cc.Conds))
	case Or:
		var out []Condition
		for _, sub := range cc.Conds {
			out = append(out, ToDNF(sub)...)
		}
		return out
	}
	return []Condition{c}
}

// flattenAnd wraps a DNF disjunct list back into a single Condition:
// if ToDNF produced exactly one disjunct, return it as is (a Pattern,
// Test, Bind, Not or And); otherwise, since an Or beneath
// Not is not distributed, wrap the alternatives back in Or so Not's
// Inner stays a single Condition.
func flattenAnd(disjuncts []Condition) Condition {
	if len(disjuncts) == 1 {
		return disjuncts[0]
	}
	return Or{Conds: disjuncts}
}

// flattenNestedAnd inlines any directly-nested And's conditions into
// the parent list, so a left-hand side built by composing And{...}
// values programmatically still distributes correctly.
func flattenNestedAnd(conds []Condition) []Condition {
	var out []Condition
	for _, c := range conds {
		if inner, ok := c.(And); ok {
			out = append(out, flattenNestedAnd(inner.Conds)...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// distributeAnd computes the cross-product DNF of an And over its
// (already-DNF) sub-disjunctions.
func distributeAnd(conds []Condition) []Condition {
	acc := []Condition{And{}}
	for _, sub := range conds {
		subDisjuncts := ToDNF(sub)
		var next []Condition
		for _, prefix := range acc {
			for _, d := range subDisjuncts {
				next = append(next, And{Conds: append(append([]Condition{}, prefix.(And).Conds...), d)})
			}
		}
		acc = next
	}
	return acc
}

// Conditions is the fully-expanded (DNF, Or-free) left-hand side of
// one compiled production alternative.
type Conditions []Condition
