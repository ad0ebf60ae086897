package worker

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbclientapi/processor/config"
	"github.com/dbclientapi/processor/model"
	"github.com/dbclientapi/processor/transfer"
)

func resolveExportType(input model.Input, settings *model.Settings, cfg *config.Config) string {
	if input.ExportType != nil && *input.ExportType != "" {
		return *input.ExportType
	}
	if settings != nil && settings.ExportType != nil && *settings.ExportType != "" {
		return *settings.ExportType
	}
	return cfg.DefaultExportType
}

func resolveExportLocation(input model.Input, settings *model.Settings, cfg *config.Config) string {
	if input.ExportLocation != nil && *input.ExportLocation != "" {
		return *input.ExportLocation
	}
	if settings != nil && settings.ExportLocation != nil && *settings.ExportLocation != "" {
		return *settings.ExportLocation
	}
	return cfg.DefaultExportLocation
}

func tmpFilePath(tmpRoot string, queryID int64, ext string, now time.Time) string {
	name := fmt.Sprintf("query_%d_%s%s", queryID, now.UTC().Format("20060102_150405"), ext)
	return filepath.Join(tmpRoot, name)
}

func finalFilePath(queryID int64, input model.Input, settings *model.Settings, cfg *config.Config, ext string, now time.Time) string {
	location := resolveExportLocation(input, settings, cfg)
	var name string
	if input.ExportFilename != nil && *input.ExportFilename != "" {
		name = *input.ExportFilename
		if !strings.HasSuffix(name, ext) {
			name += ext
		}
	} else {
		name = fmt.Sprintf("query_%d_query_%s%s", queryID, now.UTC().Format("20060102_150405"), ext)
	}
	return filepath.Join(location, name)
}

// resolveSSHHost returns the effective SSH hostname, preferring the
// query's own override, then the owning user's settings, then the
// configured default. An empty result means no level configured a
// hostname at all, so the destination resolves to a local copy.
func resolveSSHHost(input model.Input, settings *model.Settings, cfg *config.Config) string {
	if input.SSHHostname != nil && *input.SSHHostname != "" {
		return *input.SSHHostname
	}
	if settings != nil && settings.SSHHostname != nil && *settings.SSHHostname != "" {
		return *settings.SSHHostname
	}
	return cfg.SSH.Host
}

// resolveDestination builds a transfer.Destination for finalPath, choosing
// between configured SSH defaults and the owning user's settings as a
// whole: once a user has its own ssh_username configured, none of the
// configured default credentials (username, password, key, passphrase)
// are mixed in field-by-field. The port still falls back to the
// configured default when the user sets none, and the known_hosts path
// always comes from configuration.
func resolveDestination(id int64, input model.Input, settings *model.Settings, cfg *config.Config, finalPath string) transfer.Destination {
	host := resolveSSHHost(input, settings, cfg)
	if host == "" {
		return transfer.Destination{FinalPath: finalPath}
	}

	port := cfg.SSH.Port
	creds := transfer.Credentials{
		Username:      cfg.SSH.Username,
		Password:      cfg.SSH.Password,
		Key:           cfg.SSH.Key,
		KeyPassphrase: cfg.SSH.KeyPassphrase,
		KnownHosts:    cfg.SSH.KnownHosts,
	}
	if settings != nil && settings.SSHUsername != nil && *settings.SSHUsername != "" {
		creds = transfer.Credentials{
			Username:   *settings.SSHUsername,
			KnownHosts: cfg.SSH.KnownHosts,
		}
		if settings.SSHPassword != nil {
			creds.Password = *settings.SSHPassword
		}
		if settings.SSHKey != nil {
			creds.Key = *settings.SSHKey
		}
		if settings.SSHKeyPassphrase != nil {
			creds.KeyPassphrase = *settings.SSHKeyPassphrase
		}
		if settings.SSHPort != nil {
			port = *settings.SSHPort
		}
	}

	return transfer.Destination{
		Host:        &host,
		Port:        port,
		Credentials: creds,
		FinalPath:   finalPath,
	}
}
