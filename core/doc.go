// Package core implements a forward-chaining production-rule engine built
// around the Rete match algorithm: an alpha network (a discrimination tree
// over constant attribute/value tests) feeding a beta network (a left-deep
// join tree with partial-match memories, negation, NCC, test, and bind
// nodes) whose terminals maintain a conflict set of satisfied productions.
//
// The engine incrementally updates the conflict set as facts are added,
// removed, or updated, rather than recomputing matches from scratch.
package core
