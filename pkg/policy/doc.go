// Package policy holds the operator-controlled gate state consulted before
// any upstream work: the global API enabled flag, the blocked-entity set and
// the bounded admin action log. All state is in memory and scoped to the
// process lifetime.
package policy
