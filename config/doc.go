// Package config loads the process-wide configuration (scheduler
// tunables, export and transfer defaults, logging verbosity) from the
// environment at startup, using github.com/caarlos0/env. There is no
// live reconfiguration: Load is called once from main and the resulting
// Config is threaded through constructors.
package config
