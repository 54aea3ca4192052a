// Package capture defines sentinel errors for the frame pipeline.
package capture

import "errors"

var (
	// ErrConfigInvalid is returned for configuration violations that must
	// fail fast before an analysis pass starts.
	ErrConfigInvalid = errors.New("pcaplens: invalid configuration")

	// ErrUnknownFormat is returned when a capture file matches neither the
	// pcap nor the pcapng magic.
	ErrUnknownFormat = errors.New("pcaplens: unknown capture file format")
)
