// Package rete provides a forward-chaining Rete production-rule engine.
//
// The core code is in package 'core'; command-line tools are in `cmd`,
// and scripted condition/action backends are in `interpreters`.
//
// See https://github.com/slott56/go-rete/blob/master/README.md for more.
package rete
