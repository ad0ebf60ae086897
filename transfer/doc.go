// Package transfer delivers a materialised file to its configured
// destination, either by local copy or by SCP over SSH, with retry and
// tmp-file cleanup.
package transfer
