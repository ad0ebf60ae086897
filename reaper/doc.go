// Package reaper periodically finds queries left in running or
// transferring by a crashed or restarted processor and transitions them
// to failed. The admission scheduler's in-memory ledger does not survive
// a restart, so any query a prior process instance was driving is
// otherwise left stranded in a non-terminal status forever.
package reaper
