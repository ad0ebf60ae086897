// Package query defines the stateful representation of a submitted query
// within the processor's lifecycle.
//
// A Query extends model.Input with the state-machine fields maintained by
// the processor: Status, timestamps, error, and result metadata. Unlike
// Input, these fields are owned and mutated exclusively by the processor
// (store, scheduler, worker, recorder) after creation; the control-plane
// only ever reads them.
//
// Query values returned by the store gateway are snapshots. Mutating them
// in memory does not change durable state; transitions must go through the
// store's UpdateStatus operation.
package query
