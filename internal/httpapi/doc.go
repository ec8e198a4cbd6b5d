// Package httpapi is the inbound command surface of the proxy. It routes the
// public aggregation endpoints, the stats and admin surfaces and the
// operational endpoints, and enforces the policy gates (API enabled flag,
// blocked entities) before any upstream work starts. Every request through
// the API routes is recorded in the usage log exactly once, on every exit
// path including policy short-circuits.
package httpapi
