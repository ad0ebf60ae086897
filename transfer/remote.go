package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/dbclientapi/processor/internal"
	"github.com/dbclientapi/processor/metrics"
)

// RemoteSCP implements Service for destinations with an SSH hostname
// configured. Each delivery attempt opens a fresh SSH session, mkdir -p's
// the remote directory, streams the file over SFTP, verifies it exists,
// and sets mode 0644.
type RemoteSCP struct {
	backoff        internal.BackoffConfig
	connectTimeout time.Duration
	log            zerolog.Logger
}

// NewRemoteSCP returns a RemoteSCP service that retries up to
// backoff.MaxRetries times with backoff.InitialInterval between attempts.
func NewRemoteSCP(backoff internal.BackoffConfig, connectTimeout time.Duration, log zerolog.Logger) *RemoteSCP {
	return &RemoteSCP{backoff: backoff, connectTimeout: connectTimeout, log: log}
}

func authMethod(creds Credentials) (ssh.AuthMethod, string, error) {
	if creds.Key != "" {
		var signer ssh.Signer
		var err error
		if creds.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(creds.Key), []byte(creds.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(creds.Key))
		}
		if err != nil {
			return nil, "", fmt.Errorf("parse ssh key: %w", err)
		}
		return ssh.PublicKeys(signer), "key", nil
	}
	if creds.Password != "" {
		return ssh.Password(creds.Password), "password", nil
	}
	return nil, "", errors.New("no ssh credentials supplied")
}

func (r *RemoteSCP) dial(ctx context.Context, dest Destination) (*ssh.Client, string, error) {
	auth, method, err := authMethod(dest.Credentials)
	if err != nil {
		return nil, "", err
	}
	cfg := &ssh.ClientConfig{
		User:            dest.Credentials.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback(dest.Credentials.KnownHosts),
		Timeout:         r.connectTimeout,
	}
	addr := fmt.Sprintf("%s:%d", *dest.Host, dest.Port)
	r.log.Info().
		Str("host", *dest.Host).
		Int("port", dest.Port).
		Str("username", dest.Credentials.Username).
		Str("auth_method", method).
		Msg("opening ssh connection")

	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, method, err
	}
	return client, method, nil
}

// hostKeyCallback returns ssh.InsecureIgnoreHostKey when no known_hosts
// path is configured, making the unverified-host policy explicit rather
// than accidental. A configured path that cannot be loaded rejects every
// host key.
func hostKeyCallback(knownHosts string) ssh.HostKeyCallback {
	if knownHosts == "" {
		return ssh.InsecureIgnoreHostKey()
	}
	cb, err := knownHostsCallback(knownHosts)
	if err != nil {
		return func(string, net.Addr, ssh.PublicKey) error {
			return fmt.Errorf("load known_hosts %s: %w", knownHosts, err)
		}
	}
	return cb
}

func (r *RemoteSCP) deliverOnce(ctx context.Context, tmpPath string, dest Destination) error {
	client, _, err := r.dial(ctx, dest)
	if err != nil {
		return classify(err)
	}
	defer client.Close()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return classify(err)
	}
	defer sc.Close()

	final := resolveRemotePath(dest.FinalPath)
	dir := path.Dir(final)
	if err := sc.MkdirAll(dir); err != nil {
		return classify(err)
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: open source: %v", ErrTransferFailed, err)
	}
	defer src.Close()

	dst, err := sc.Create(final)
	if err != nil {
		return classify(err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return classify(err)
	}
	if err := dst.Close(); err != nil {
		return classify(err)
	}

	if _, err := sc.Stat(final); err != nil {
		return classify(err)
	}
	if err := sc.Chmod(final, 0o644); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission denied") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, err)
}

func (r *RemoteSCP) Deliver(ctx context.Context, tmpPath string, dest Destination) (err error) {
	timer := metrics.NewTimer()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.TransferAttemptsTotal.WithLabelValues("remote", outcome).Inc()
		timer.ObserveDurationVec(metrics.TransferDuration, "remote")
	}()

	counter := internal.NewBackoffCounter(r.backoff)
	var lastErr error
	var attempt uint32 = 1
	for {
		attemptErr := r.deliverOnce(ctx, tmpPath, dest)
		if attemptErr == nil {
			return nil
		}
		if errors.Is(attemptErr, ErrPermissionDenied) {
			return attemptErr
		}
		lastErr = attemptErr
		delay, ok := counter.Next(attempt)
		if !ok {
			return lastErr
		}
		r.log.Warn().Err(attemptErr).Uint32("attempt", attempt).Msg("transfer attempt failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}
