// Package worker drives one admitted query from admission to a terminal
// state: remote DB connect, statement execute, row materialisation, and
// file delivery.
package worker
