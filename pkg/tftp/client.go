package tftp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/lanport/tftpgo/pkg/concurrency"
)

// DefaultPort is the well-known server port the initial request is sent to.
// The data phase continues on the ephemeral port the server replies from
// (its transfer ID).
const DefaultPort = 69

// ProgressFunc is called after every consumed block with the running byte
// count and the total transfer size. Total is 0 when the size is unknown
// (no tsize was negotiated on a download).
type ProgressFunc func(transferred, total int64)

// Client performs TFTP downloads and uploads against a single server.
//
// Each transfer owns one UDP socket for its whole request+data phase and a
// client never runs two transfers at once; a second call while one is in
// flight fails with concurrency.ErrBusy. Receives block indefinitely by
// default, matching the protocol engine's no-retransmission contract, but a
// receive deadline can be set as an escape hatch for harnesses.
type Client struct {
	addr      *net.UDPAddr
	blksize   *int
	wantTsize bool
	timeout   time.Duration
	progress  ProgressFunc
	guard     *concurrency.Guard
	log       *slog.Logger
}

// ClientOpt configures a Client.
type ClientOpt func(*Client) error

// WithBlockSize requests blksize negotiation (RFC 2348). The value must be
// in [MinBlockSize, MaxBlockSize]; out-of-range values are rejected here,
// before any packet is built.
func WithBlockSize(n int) ClientOpt {
	return func(c *Client) error {
		if n < MinBlockSize || n > MaxBlockSize {
			return ErrBlockSizeRange
		}
		v := n
		c.blksize = &v
		return nil
	}
}

// WithTransferSize requests tsize negotiation (RFC 2349): 0 is sent on a
// read request, the exact file length on a write request.
func WithTransferSize() ClientOpt {
	return func(c *Client) error {
		c.wantTsize = true
		return nil
	}
}

// WithReceiveTimeout bounds every blocking receive. The zero default keeps
// the engine's indefinite-wait behavior; there is no retransmission either
// way, a timeout simply aborts the transfer.
func WithReceiveTimeout(d time.Duration) ClientOpt {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("receive timeout cannot be negative")
		}
		c.timeout = d
		return nil
	}
}

// WithProgress registers a callback invoked as blocks are consumed.
func WithProgress(fn ProgressFunc) ClientOpt {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithLogger overrides the default structured logger.
func WithLogger(l *slog.Logger) ClientOpt {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// NewClient creates a client for the server at addr. Address resolution is
// the caller's concern; the client only ever talks to the address it is
// given.
func NewClient(addr *net.UDPAddr, opts ...ClientOpt) (*Client, error) {
	if addr == nil {
		return nil, fmt.Errorf("server address is required")
	}
	c := &Client{
		addr:  addr,
		guard: concurrency.NewGuard(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.log = c.log.With("session", uuid.NewString(), "server", addr.String())
	return c, nil
}

// requestOptions builds the option set for the initial request. tsize is
// the value to submit when transfer size negotiation was asked for.
func (c *Client) requestOptions(tsize int64) Options {
	var opts Options
	if c.blksize != nil {
		opts.Blksize = new(int)
		*opts.Blksize = *c.blksize
	}
	if c.wantTsize {
		opts.Tsize = new(int64)
		*opts.Tsize = tsize
	}
	return opts
}

// session bundles the per-transfer socket state shared by the read and
// write state machines.
type session struct {
	conn     *net.UDPConn
	timeout  time.Duration
	log      *slog.Logger
	progress ProgressFunc
}

func (c *Client) newSession() (*session, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("open socket: %w", err)
	}
	return &session{
		conn:     conn,
		timeout:  c.timeout,
		log:      c.log,
		progress: c.progress,
	}, nil
}

func (s *session) send(p Packet, to *net.UDPAddr) error {
	if _, err := s.conn.WriteToUDP(p.Marshal(), to); err != nil {
		return fmt.Errorf("send %s: %w", packetName(p), err)
	}
	return nil
}

// recv blocks until the next datagram arrives and parses it. A decode
// failure comes back as a *DecodeError; the state machines treat those as
// noise and keep waiting. Socket-level failures are terminal.
func (s *session) recv(buf []byte) (Packet, *net.UDPAddr, error) {
	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, nil, fmt.Errorf("set deadline: %w", err)
		}
	}
	n, from, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("receive: %w", err)
	}
	pkt, err := Parse(buf[:n])
	if err != nil {
		return nil, from, err
	}
	return pkt, from, nil
}

func (s *session) reportProgress(transferred, total int64) {
	if s.progress != nil {
		s.progress(transferred, total)
	}
}

// Get downloads the named remote file, streaming its content to sink. The
// engine never opens files itself; sink is whatever the caller wants the
// bytes written to.
func (c *Client) Get(remote string, sink io.Writer) error {
	return c.guard.Execute(func() error { return c.get(remote, sink) })
}

func (c *Client) get(remote string, sink io.Writer) error {
	s, err := c.newSession()
	if err != nil {
		return err
	}
	defer s.conn.Close()

	req := &ReadRequest{Filename: remote, Mode: ModeOctet, Options: c.requestOptions(0)}
	c.log.Info("sending read request", "file", remote, "options", !req.Options.IsZero())
	if err := s.send(req, c.addr); err != nil {
		return err
	}

	// The first reply sizes the transfer: an OACK fixes the negotiated
	// values, a bare DATA means the server ignored the options and the
	// protocol defaults apply.
	buf := make([]byte, 4+MaxBlockSize)
	for {
		pkt, from, err := s.recv(buf)
		if err != nil {
			var derr *DecodeError
			if errors.As(err, &derr) {
				c.log.Debug("ignoring undecodable datagram", "error", derr)
				continue
			}
			return err
		}
		switch p := pkt.(type) {
		case *OptionAck:
			params, err := negotiate(p.Options)
			if err != nil {
				c.log.Error("rejecting server options", "error", err)
				return err
			}
			c.log.Info("options acknowledged", "blksize", params.Blksize, "tsize", params.Tsize)
			if err := s.send(&Ack{Block: 0}, from); err != nil {
				return err
			}
			t := &readTransfer{session: s, params: params, sink: sink}
			return t.run(nil, nil)
		case *Data:
			t := &readTransfer{session: s, params: defaultParams(), sink: sink}
			return t.run(p, from)
		case *Error:
			c.log.Error("read request rejected", "code", p.Code, "message", p.Message)
			return &RemoteError{Code: p.Code, Message: p.Message}
		default:
			c.log.Debug("ignoring packet while awaiting first reply", "kind", packetName(pkt))
		}
	}
}

// Put uploads size bytes from source under the given remote name. The
// caller supplies the byte source and its exact length; size feeds the
// tsize option and progress reporting.
func (c *Client) Put(remote string, source io.Reader, size int64) error {
	return c.guard.Execute(func() error { return c.put(remote, source, size) })
}

func (c *Client) put(remote string, source io.Reader, size int64) error {
	if size < 0 {
		return ErrNegativeTsize
	}
	s, err := c.newSession()
	if err != nil {
		return err
	}
	defer s.conn.Close()

	req := &WriteRequest{Filename: remote, Mode: ModeOctet, Options: c.requestOptions(size)}
	c.log.Info("sending write request", "file", remote, "size", size, "options", !req.Options.IsZero())
	if err := s.send(req, c.addr); err != nil {
		return err
	}

	buf := make([]byte, 4+MaxBlockSize)
	for {
		pkt, from, err := s.recv(buf)
		if err != nil {
			var derr *DecodeError
			if errors.As(err, &derr) {
				c.log.Debug("ignoring undecodable datagram", "error", derr)
				continue
			}
			return err
		}
		switch p := pkt.(type) {
		case *Ack:
			if p.Block != 0 {
				return fmt.Errorf("write request acknowledged with block %d, want 0", p.Block)
			}
			t := &writeTransfer{session: s, params: defaultParams(), source: source, size: size, server: from}
			return t.run()
		case *OptionAck:
			params, err := negotiate(p.Options)
			if err != nil {
				c.log.Error("rejecting server options", "error", err)
				return err
			}
			c.log.Info("options acknowledged", "blksize", params.Blksize, "tsize", params.Tsize)
			t := &writeTransfer{session: s, params: params, source: source, size: size, server: from}
			return t.run()
		case *Error:
			c.log.Error("write request rejected", "code", p.Code, "message", p.Message)
			return &RemoteError{Code: p.Code, Message: p.Message}
		default:
			c.log.Debug("ignoring packet while awaiting first reply", "kind", packetName(pkt))
		}
	}
}
