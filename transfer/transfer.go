package transfer

import (
	"context"
	"errors"
	"strings"
)

// ErrPermissionDenied indicates the destination rejected the transfer for
// lack of access. It is never retried.
var ErrPermissionDenied = errors.New("permission denied")

// ErrTransferFailed wraps any other delivery failure that survived
// retries.
var ErrTransferFailed = errors.New("transfer failed")

// Credentials carries the resolved SSH parameters for a Mode B delivery.
// Precisely one of Key or Password should be set; Key takes precedence
// when both are present.
type Credentials struct {
	Username      string
	Password      string
	Key           string
	KeyPassphrase string
	KnownHosts    string
}

// Destination describes where a materialised file must end up. Host is
// nil for Mode A (local copy); non-nil selects Mode B (remote SCP).
type Destination struct {
	Host        *string
	Port        int
	Credentials Credentials
	FinalPath   string
}

// Service delivers a local file to a Destination.
type Service interface {
	// Deliver copies the file at tmpPath to dest.FinalPath, per the
	// destination's mode. On success the file exists at FinalPath with
	// mode 0644 (Mode B) or copied metadata (Mode A).
	Deliver(ctx context.Context, tmpPath string, dest Destination) error
}

// resolveRemotePath normalizes a user-supplied destination path: Windows
// backslashes become forward slashes, and a trailing slash is trimmed,
// since destinations may be typed by users on either platform.
func resolveRemotePath(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	if len(normalized) > 1 {
		normalized = strings.TrimRight(normalized, "/")
	}
	return normalized
}
