// Package recorder wraps store.Store's status-mutating calls with bounded
// retry, so that a transient store error never aborts a worker mid-flight.
package recorder
