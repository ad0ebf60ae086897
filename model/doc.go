// Package model defines the immutable input data of a submitted query.
//
// Input carries only the fields fixed at creation time: the SQL text, the
// remote database credentials and connection descriptor, and the
// user-chosen export and transfer overrides. It does not carry lifecycle
// state (status, timestamps, error, result metadata); that is the
// responsibility of package query, which embeds Input.
//
// Input is written once by the control-plane when a query is created and
// is never mutated afterward, including on rerun: a rerun copies an
// existing Input into a brand new query.Query row rather than changing the
// original.
package model
