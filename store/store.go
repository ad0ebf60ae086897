package store

import (
	"context"
	"errors"
	"time"

	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/query"
)

var (
	// ErrQueryNotFound indicates that the referenced query does not exist.
	ErrQueryNotFound = errors.New("query not found")

	// ErrInvalidTransition indicates UpdateStatus was asked to move a
	// query along an edge the permitted status DAG forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PendingQuery pairs a pending Query with its owner's Settings. Rows whose
// owner has no Settings row are still returned, with Settings nil; callers
// apply configured defaults in that case.
type PendingQuery struct {
	Query    *query.Query
	Settings *model.Settings
}

// StatusUpdate is the delta supplied to UpdateStatus. A nil field leaves
// the corresponding column unchanged; ResultMetadata, when non-nil, is
// merged into the existing object rather than replacing it.
type StatusUpdate struct {
	ErrorMessage   *string
	ResultMetadata *query.ResultMetadata
}

// Store is the typed CRUD surface the processor uses against the durable
// query/user/settings tables.
//
// Every status-mutating method is transactional and retried by the
// lifecycle recorder, not by Store itself; Store returns errors as-is so
// the caller can distinguish transient from permanent failures.
type Store interface {
	// ListPending returns up to limit pending queries belonging to active
	// users, ordered by created_at ascending, joined with each owner's
	// settings. A limit of zero or less returns every such query.
	ListPending(ctx context.Context, limit int) ([]PendingQuery, error)

	// CountRunningByUser returns, for every user with at least one query
	// in Running or Transferring, the count of such queries.
	CountRunningByUser(ctx context.Context) (map[int64]int, error)

	// GetSettings returns the settings row for userID, or nil if the user
	// has none.
	GetSettings(ctx context.Context, userID int64) (*model.Settings, error)

	// GetQuery returns the query identified by id, or nil if it does not
	// exist.
	GetQuery(ctx context.Context, id int64) (*query.Query, error)

	// ListStuck returns queries whose status is in statuses and whose
	// updated_at is at or before olderThan. Used by the reaper to find
	// queries left in Running or Transferring by a crashed processor.
	ListStuck(ctx context.Context, statuses []query.Status, olderThan time.Time) ([]*query.Query, error)

	// UpdateStatus atomically transitions id to newStatus, merging delta
	// into the existing result_metadata and setting started_at/
	// completed_at exactly when the permitted status DAG requires it.
	UpdateStatus(ctx context.Context, id int64, newStatus query.Status, delta StatusUpdate) error

	// Rerun creates a new Pending query row copying the inputs of id.
	// The original row is left untouched.
	Rerun(ctx context.Context, id int64) (*query.Query, error)
}
