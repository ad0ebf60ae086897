package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/sijms/go-ora/v2"
)

// ErrConnect wraps any failure to open or ping the remote analytical
// database.
var ErrConnect = errors.New("connection error")

// Connect opens a connection to the remote analytical database identified
// by (username, password, tns). tns is an opaque connection descriptor
// passed straight through to the driver rather than decomposed into
// host/port/service fields.
func Connect(ctx context.Context, username, password, tns string) (*sql.DB, error) {
	db, err := sql.Open("oracle", buildDSN(username, password, tns))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return db, nil
}

func buildDSN(username, password, tns string) string {
	return fmt.Sprintf("oracle://%s:%s@%s", url.QueryEscape(username), url.QueryEscape(password), tns)
}
