// Package materialize converts a fetched (columns, rows) result set into a
// bytes-on-disk artefact in one of four formats: csv, excel (xlsx), json,
// and feather (Arrow IPC).
package materialize
