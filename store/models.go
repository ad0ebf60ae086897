package store

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/query"
)

type userModel struct {
	bun.BaseModel `bun:"table:users"`

	ID             int64  `bun:"id,pk,autoincrement"`
	Email          string `bun:"email,unique,notnull"`
	HashedPassword string `bun:"hashed_password,notnull"`
	IsActive       bool   `bun:"is_active,notnull,default:true"`
}

func (u *userModel) toModel() *model.User {
	return &model.User{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
	}
}

type settingsModel struct {
	bun.BaseModel `bun:"table:user_settings"`

	ID     int64 `bun:"id,pk,autoincrement"`
	UserID int64 `bun:"user_id,notnull,unique"`

	ExportLocation     *string `bun:"export_location"`
	ExportType         *string `bun:"export_type"`
	MaxParallelQueries *int    `bun:"max_parallel_queries"`

	SSHHostname      *string `bun:"ssh_hostname"`
	SSHPort          *int    `bun:"ssh_port"`
	SSHUsername      *string `bun:"ssh_username"`
	SSHPassword      *string `bun:"ssh_password"`
	SSHKey           *string `bun:"ssh_key"`
	SSHKeyPassphrase *string `bun:"ssh_key_passphrase"`
}

func (s *settingsModel) toModel() *model.Settings {
	return &model.Settings{
		UserID:             s.UserID,
		ExportLocation:     s.ExportLocation,
		ExportType:         s.ExportType,
		MaxParallelQueries: s.MaxParallelQueries,
		SSHHostname:        s.SSHHostname,
		SSHPort:            s.SSHPort,
		SSHUsername:        s.SSHUsername,
		SSHPassword:        s.SSHPassword,
		SSHKey:             s.SSHKey,
		SSHKeyPassphrase:   s.SSHKeyPassphrase,
	}
}

type queryModel struct {
	bun.BaseModel `bun:"table:queries"`

	ID     int64 `bun:"id,pk,autoincrement"`
	UserID int64 `bun:"user_id,notnull"`

	QueryText  string `bun:"query_text,notnull"`
	DBUsername string `bun:"db_username,notnull"`
	DBPassword string `bun:"db_password,notnull"`
	DBTNS      string `bun:"db_tns,notnull"`

	ExportLocation *string `bun:"export_location"`
	ExportType     *string `bun:"export_type"`
	ExportFilename *string `bun:"export_filename"`
	SSHHostname    *string `bun:"ssh_hostname"`

	Status       string  `bun:"status,notnull,default:'pending'"`
	ErrorMessage *string `bun:"error_message"`

	// ResultMetadata is stored as a JSON document. Merge semantics are
	// implemented in Go inside a transaction (mergeResultMetadata in
	// bun_store.go) rather than
	// relying on a dialect-specific jsonb operator, so the same code path
	// works against both sqlite (tests) and postgres (production).
	ResultMetadata json.RawMessage `bun:"result_metadata,type:jsonb"`

	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	CompletedAt *time.Time `bun:"completed_at"`
}

func (q *queryModel) resultMetadata() (query.ResultMetadata, error) {
	var rm query.ResultMetadata
	if len(q.ResultMetadata) == 0 {
		return rm, nil
	}
	if err := json.Unmarshal(q.ResultMetadata, &rm); err != nil {
		return rm, err
	}
	return rm, nil
}

func (q *queryModel) toQuery() (*query.Query, error) {
	rm, err := q.resultMetadata()
	if err != nil {
		return nil, err
	}
	status, err := query.ParseStatus(q.Status)
	if err != nil {
		return nil, err
	}
	return &query.Query{
		Input: model.Input{
			UserID:         q.UserID,
			QueryText:      q.QueryText,
			DBUsername:     q.DBUsername,
			DBPassword:     q.DBPassword,
			DBTNS:          q.DBTNS,
			ExportLocation: q.ExportLocation,
			ExportType:     q.ExportType,
			ExportFilename: q.ExportFilename,
			SSHHostname:    q.SSHHostname,
		},
		ID:           q.ID,
		Status:       status,
		ErrorMessage: q.ErrorMessage,
		Result:       rm,
		CreatedAt:    q.CreatedAt,
		StartedAt:    q.StartedAt,
		UpdatedAt:    q.UpdatedAt,
		CompletedAt:  q.CompletedAt,
	}, nil
}
