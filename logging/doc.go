// Package logging provides the structured, zerolog-backed logging used
// throughout the processor: a global logger configured once at startup and
// component child loggers that carry query/user context through every tick,
// worker run, and transfer attempt.
package logging
