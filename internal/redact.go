package internal

import "strings"

const redacted = "[redacted]"

// RedactConnDescriptor strips credentials from a free-form connection
// descriptor (such as a db_tns value or an ssh target) before it is placed
// in a log line or an error_message. It never returns the input verbatim
// if the input contains an '@', since host/user pairs of the form
// user:password@host are the common leak vector.
func RedactConnDescriptor(s string) string {
	at := strings.LastIndex(s, "@")
	if at == -1 {
		return s
	}
	return redacted + s[at:]
}

// SafeErrorMessage builds a user-visible error_message from an internal
// error, applying RedactConnDescriptor to the whole error text, so
// everything before its last '@' is replaced. Callers still must not pass
// raw secret fields (db_password, ssh_password, ssh_key,
// ssh_key_passphrase) into err.
func SafeErrorMessage(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	return prefix + ": " + RedactConnDescriptor(err.Error())
}
