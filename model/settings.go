package model

// User is the owner of zero or one Settings and many queries. IsActive
// gates admission: the store gateway's ListPending excludes queries
// belonging to inactive users.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	IsActive       bool
}

// Settings holds a user's per-account defaults: export destination and
// format, a per-user parallelism cap, and transfer credentials. All
// fields are optional; a nil field means "fall back to the processor's
// configured default."
//
// Secret fields (SSHPassword, SSHKey, SSHKeyPassphrase) are treated as
// opaque byte strings and must never reach a log line or error_message.
type Settings struct {
	UserID int64

	ExportLocation     *string
	ExportType         *string
	MaxParallelQueries *int

	SSHHostname       *string
	SSHPort           *int
	SSHUsername       *string
	SSHPassword       *string
	SSHKey            *string
	SSHKeyPassphrase  *string
}
