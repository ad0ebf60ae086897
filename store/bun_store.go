package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/query"
)

// BunStore implements Store using github.com/uptrace/bun, following the
// teacher SQL backend's split of one small type per operation family but
// consolidated here since the operation set is smaller.
type BunStore struct {
	db *bun.DB
}

// NewBunStore creates a new bun-backed Store. The caller must run
// InitSchema before use and owns the *bun.DB's connection lifecycle.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// ListPending joins queries to users for the is_active filter with a plain
// SQL join (bun's relation mapping does not fit a filter-only join well),
// then attaches each owner's settings with a second, batched lookup.
func (s *BunStore) ListPending(ctx context.Context, limit int) ([]PendingQuery, error) {
	var rows []queryModel
	q := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("query_model.*").
		Join("JOIN users AS u ON u.id = query_model.user_id").
		Where("query_model.status = ?", query.Pending.String()).
		Where("u.is_active = ?", true).
		Order("query_model.created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	userIDs := make([]int64, 0, len(rows))
	seen := make(map[int64]bool)
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
	}
	var settingsRows []settingsModel
	if err := s.db.NewSelect().Model(&settingsRows).Where("user_id IN (?)", bun.In(userIDs)).Scan(ctx); err != nil {
		return nil, err
	}
	byUser := make(map[int64]*model.Settings, len(settingsRows))
	for i := range settingsRows {
		byUser[settingsRows[i].UserID] = settingsRows[i].toModel()
	}

	ret := make([]PendingQuery, 0, len(rows))
	for i := range rows {
		qq, err := rows[i].toQuery()
		if err != nil {
			return nil, err
		}
		ret = append(ret, PendingQuery{Query: qq, Settings: byUser[rows[i].UserID]})
	}
	return ret, nil
}

func (s *BunStore) CountRunningByUser(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		UserID int64 `bun:"user_id"`
		Count  int   `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*queryModel)(nil)).
		ColumnExpr("user_id").
		ColumnExpr("count(*) AS count").
		Where("status IN (?, ?)", query.Running.String(), query.Transferring.String()).
		Group("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	ret := make(map[int64]int, len(rows))
	for _, r := range rows {
		ret[r.UserID] = r.Count
	}
	return ret, nil
}

func (s *BunStore) GetSettings(ctx context.Context, userID int64) (*model.Settings, error) {
	var sm settingsModel
	err := s.db.NewSelect().Model(&sm).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sm.toModel(), nil
}

func (s *BunStore) GetQuery(ctx context.Context, id int64) (*query.Query, error) {
	var qm queryModel
	err := s.db.NewSelect().Model(&qm).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return qm.toQuery()
}

func (s *BunStore) ListStuck(ctx context.Context, statuses []query.Status, olderThan time.Time) ([]*query.Query, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = st.String()
	}
	var rows []queryModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("status IN (?)", bun.In(names)).
		Where("updated_at <= ?", olderThan).
		Order("updated_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*query.Query, 0, len(rows))
	for i := range rows {
		qq, err := rows[i].toQuery()
		if err != nil {
			return nil, err
		}
		ret = append(ret, qq)
	}
	return ret, nil
}

// validTransitions encodes the permitted status DAG: pending -> running
// -> transferring -> completed, with failed reachable from any
// non-terminal status.
var validTransitions = map[query.Status]map[query.Status]bool{
	query.Pending:      {query.Running: true, query.Failed: true},
	query.Running:      {query.Transferring: true, query.Failed: true},
	query.Transferring: {query.Completed: true, query.Failed: true},
}

func (s *BunStore) UpdateStatus(ctx context.Context, id int64, newStatus query.Status, delta StatusUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var current queryModel
	selectCurrent := tx.NewSelect().Model(&current).Where("id = ?", id)
	if s.db.Dialect().Name() == dialect.PG {
		selectCurrent = selectCurrent.For("UPDATE")
	}
	if err := selectCurrent.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQueryNotFound
		}
		return err
	}
	currentStatus, err := query.ParseStatus(current.Status)
	if err != nil {
		return err
	}
	if currentStatus != newStatus && !validTransitions[currentStatus][newStatus] {
		return ErrInvalidTransition
	}

	mergedMeta, err := mergeResultMetadata(current.ResultMetadata, delta.ResultMetadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	upd := tx.NewUpdate().Model((*queryModel)(nil)).Where("id = ?", id)
	upd = upd.Set("status = ?", newStatus.String())
	upd = upd.Set("updated_at = ?", now)
	upd = upd.Set("result_metadata = ?", mergedMeta)
	if delta.ErrorMessage != nil {
		upd = upd.Set("error_message = ?", *delta.ErrorMessage)
	}
	if newStatus == query.Running && current.StartedAt == nil {
		upd = upd.Set("started_at = ?", now)
	}
	if newStatus.Terminal() && current.CompletedAt == nil {
		upd = upd.Set("completed_at = ?", now)
	}
	if _, err := upd.Exec(ctx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *BunStore) Rerun(ctx context.Context, id int64) (*query.Query, error) {
	original, err := s.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, ErrQueryNotFound
	}
	input := original.Rerun()
	now := time.Now().UTC()
	nm := &queryModel{
		UserID:         input.UserID,
		QueryText:      input.QueryText,
		DBUsername:     input.DBUsername,
		DBPassword:     input.DBPassword,
		DBTNS:          input.DBTNS,
		ExportLocation: input.ExportLocation,
		ExportType:     input.ExportType,
		ExportFilename: input.ExportFilename,
		SSHHostname:    input.SSHHostname,
		Status:         query.Pending.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.db.NewInsert().Model(nm).Exec(ctx); err != nil {
		return nil, err
	}
	return nm.toQuery()
}

func mergeResultMetadata(existing json.RawMessage, delta *query.ResultMetadata) (json.RawMessage, error) {
	var current query.ResultMetadata
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &current); err != nil {
			return nil, err
		}
	}
	merged := current
	if delta != nil {
		merged = current.Merge(*delta)
	}
	return json.Marshal(merged)
}
