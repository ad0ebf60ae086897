// Package scheduler implements the admission scheduler: a periodic tick
// that selects pending queries, applies global and per-user concurrency
// caps with fair round-robin across users, and hands admitted queries to a
// caller-supplied admit function.
package scheduler
