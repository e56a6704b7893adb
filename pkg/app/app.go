// Package app wires the TFTP protocol engine to the terminal UI: it owns
// the local file handles, runs the transfer, and reports progress and
// completion as UI messages.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appevents "github.com/lanport/tftpgo/internal/app_events"
	"github.com/lanport/tftpgo/pkg/fileInfo"
	"github.com/lanport/tftpgo/pkg/tftp"
)

// Direction selects between a download (RRQ) and an upload (WRQ).
type Direction int

const (
	Download Direction = iota
	Upload
)

// Request describes one transfer as assembled by the CLI.
type Request struct {
	Server     *net.UDPAddr
	Direction  Direction
	RemoteName string        // filename on the server
	LocalPath  string        // file to create (download) or send (upload)
	BlockSize  int           // 0 means no blksize negotiation
	WantTsize  bool          // request tsize negotiation
	Timeout    time.Duration // 0 means block indefinitely
}

// App is the logic controller for a single transfer.
type App struct {
	req        Request
	uiMessages chan tea.Msg
}

func New(req Request) *App {
	return &App{
		req:        req,
		uiMessages: make(chan tea.Msg, 16),
	}
}

// UIMessages returns the channel the UI listens on for updates.
func (a *App) UIMessages() <-chan tea.Msg {
	return a.uiMessages
}

// Run performs the transfer. The protocol engine itself has no cancellation
// point, so on ctx cancellation Run returns and leaves the blocked transfer
// goroutine to die with the process; its socket is owned by nobody else.
func (a *App) Run(ctx context.Context) error {
	result := make(chan error, 1)
	go func() {
		result <- a.runTransfer()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

func (a *App) runTransfer() error {
	opts := []tftp.ClientOpt{
		tftp.WithProgress(func(transferred, total int64) {
			a.uiMessages <- appevents.ProgressMsg{Transferred: transferred, Total: total}
		}),
	}
	if a.req.BlockSize > 0 {
		opts = append(opts, tftp.WithBlockSize(a.req.BlockSize))
	}
	if a.req.WantTsize {
		opts = append(opts, tftp.WithTransferSize())
	}
	if a.req.Timeout > 0 {
		opts = append(opts, tftp.WithReceiveTimeout(a.req.Timeout))
	}

	client, err := tftp.NewClient(a.req.Server, opts...)
	if err != nil {
		return a.fail("invalid transfer configuration", err)
	}

	start := time.Now()
	var summary appevents.Summary
	switch a.req.Direction {
	case Download:
		summary, err = a.download(client)
	case Upload:
		summary, err = a.upload(client)
	default:
		err = fmt.Errorf("unknown transfer direction %d", a.req.Direction)
	}
	if err != nil {
		a.uiMessages <- appevents.ErrorMsg{Err: err}
		return err
	}

	summary.Elapsed = time.Since(start)
	a.uiMessages <- appevents.DoneMsg{Summary: summary}
	return nil
}

func (a *App) download(client *tftp.Client) (appevents.Summary, error) {
	a.uiMessages <- appevents.StatusMsg{Message: fmt.Sprintf("Requesting %s...", a.req.RemoteName)}

	out, err := os.Create(a.req.LocalPath)
	if err != nil {
		return appevents.Summary{}, fmt.Errorf("create %s: %w", a.req.LocalPath, err)
	}
	sink := &countingWriter{w: out}

	getErr := client.Get(a.req.RemoteName, sink)
	if closeErr := out.Close(); closeErr != nil && getErr == nil {
		getErr = fmt.Errorf("close %s: %w", a.req.LocalPath, closeErr)
	}
	if getErr != nil {
		// Whatever was flushed stays on disk; partial output is the
		// caller's to inspect or remove.
		return appevents.Summary{}, getErr
	}

	return appevents.Summary{
		LocalPath: a.req.LocalPath,
		Bytes:     sink.n,
		MimeType:  fileInfo.DetectType(a.req.LocalPath),
	}, nil
}

func (a *App) upload(client *tftp.Client) (appevents.Summary, error) {
	// The file length feeds the tsize option, so it is fixed before the
	// first packet is built.
	local, err := fileInfo.Stat(a.req.LocalPath)
	if err != nil {
		return appevents.Summary{}, fmt.Errorf("stat %s: %w", a.req.LocalPath, err)
	}

	a.uiMessages <- appevents.StatusMsg{
		Message: fmt.Sprintf("Sending %s as %s...", a.req.LocalPath, a.req.RemoteName),
	}

	in, err := os.Open(a.req.LocalPath)
	if err != nil {
		return appevents.Summary{}, fmt.Errorf("open %s: %w", a.req.LocalPath, err)
	}
	defer in.Close()

	if err := client.Put(a.req.RemoteName, in, local.Size); err != nil {
		return appevents.Summary{}, err
	}

	return appevents.Summary{
		LocalPath: a.req.LocalPath,
		Bytes:     local.Size,
		MimeType:  local.MimeType,
	}, nil
}

func (a *App) fail(baseMessage string, err error) error {
	wrapped := fmt.Errorf("%s: %w", baseMessage, err)
	slog.Error(baseMessage, "error", err)
	a.uiMessages <- appevents.ErrorMsg{Err: wrapped}
	return wrapped
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
