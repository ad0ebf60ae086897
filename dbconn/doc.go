// Package dbconn connects to a user's remote analytical database and fetches
// the full result set of one query. The only driver wired in is Oracle, via
// the pure-Go github.com/sijms/go-ora/v2 driver, matching the connection
// descriptor shape (db_tns) carried by the Query record.
package dbconn
