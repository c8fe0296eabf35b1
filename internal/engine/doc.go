// Package engine implements the program-rule evaluation engine: variable
// resolution, rule-text compilation and evaluation, context-sensitive
// rule selection, effect collection, and the bounded assignment cascade.
//
// The engine is a pure, synchronous computation with no I/O and no
// shared mutable state beyond a read-mostly compiled-expression cache;
// callers own all scheduling, debouncing and persistence policy.
package engine
