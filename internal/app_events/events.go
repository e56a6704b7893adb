// Package appevents defines the messages the transfer controller sends to
// the TUI. They all satisfy tea.Msg (any), so the UI package can consume
// them directly from the controller's message channel.
package appevents

import "time"

// StatusMsg updates the one-line status shown while a transfer is being
// set up.
type StatusMsg struct {
	Message string
}

// ProgressMsg reports transfer progress. Total is 0 when the size is
// unknown (no tsize was negotiated on a download).
type ProgressMsg struct {
	Transferred int64
	Total       int64
}

// DoneMsg signals a successfully finished transfer.
type DoneMsg struct {
	Summary Summary
}

// ErrorMsg signals a failed transfer; the error is terminal, nothing is
// retried.
type ErrorMsg struct {
	Err error
}

// Summary describes a completed transfer for the final view.
type Summary struct {
	LocalPath string
	Bytes     int64
	MimeType  string
	Elapsed   time.Duration
}
