package tftp

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// readTransfer drives a server-to-client download. It expects blocks in
// order starting at 1 and ends when a DATA payload arrives shorter than the
// negotiated block size.
type readTransfer struct {
	*session
	params TransferParams
	sink   io.Writer
}

// run consumes DATA packets until the short terminal block. When the
// coordinator already received the first DATA packet while classifying the
// server's reply, it is handed in as pending so no datagram is lost; the
// data-phase TID is learned from whichever DATA datagram arrives first.
func (t *readTransfer) run(pending *Data, pendingFrom *net.UDPAddr) error {
	expected := uint16(1)
	var received int64
	buf := make([]byte, 4+t.params.Blksize)

	for {
		var (
			pkt  Packet
			from *net.UDPAddr
		)
		if pending != nil {
			pkt, from = pending, pendingFrom
			pending = nil
		} else {
			var err error
			pkt, from, err = t.recv(buf)
			if err != nil {
				var derr *DecodeError
				if errors.As(err, &derr) {
					t.log.Debug("ignoring undecodable datagram", "error", derr)
					continue
				}
				return err
			}
		}

		switch p := pkt.(type) {
		case *Data:
			if p.Block == expected {
				if _, err := t.sink.Write(p.Payload); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				expected++
				received += int64(len(p.Payload))
				t.reportProgress(received, t.params.Tsize)
			} else {
				// The payload of an out-of-sequence block is discarded,
				// but the block itself is still acknowledged below.
				t.log.Warn("unexpected block", "got", p.Block, "want", expected)
			}
			if err := t.send(&Ack{Block: p.Block}, from); err != nil {
				return err
			}
			if len(p.Payload) < t.params.Blksize {
				t.log.Info("download complete", "bytes", received)
				return nil
			}
		case *Error:
			t.log.Error("transfer aborted by server", "code", p.Code, "message", p.Message)
			return &RemoteError{Code: p.Code, Message: p.Message}
		default:
			// Not part of the data phase; keep waiting.
			t.log.Debug("ignoring packet", "kind", packetName(pkt))
		}
	}
}
