package tftp

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// writeTransfer drives a client-to-server upload. The coordinator has
// already seen the initial ACK(0) or OACK, which established the data-phase
// address in server.
type writeTransfer struct {
	*session
	params TransferParams
	source io.Reader
	size   int64
	server *net.UDPAddr
}

// run sends blksize-sized chunks starting at block 1, awaiting the matching
// ACK after each. A chunk shorter than blksize is the terminal packet; a
// file dividing evenly into blksize produces one final empty DATA packet,
// since a short payload is the only end-of-transfer signal the peer knows.
func (t *writeTransfer) run() error {
	block := uint16(1)
	var sent int64
	chunk := make([]byte, t.params.Blksize)

	for {
		n, err := io.ReadFull(t.source, chunk)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Final read: fewer than blksize bytes, possibly zero. A zero-
			// length DATA packet is still sent, it is the terminal signal.
		default:
			return fmt.Errorf("read input: %w", err)
		}

		if err := t.send(&Data{Block: block, Payload: chunk[:n]}, t.server); err != nil {
			return err
		}
		if err := t.awaitAck(block); err != nil {
			return err
		}
		sent += int64(n)
		t.reportProgress(sent, t.size)

		if n < t.params.Blksize {
			t.log.Info("upload complete", "bytes", sent, "blocks", block)
			return nil
		}
		block++
	}
}

// awaitAck blocks until the server acknowledges the given block. The ACK's
// source refreshes the data-phase address in case the server rebinds its
// transfer ID. An ERROR aborts immediately; anything else is ignored.
func (t *writeTransfer) awaitAck(block uint16) error {
	buf := make([]byte, 4+MaxBlockSize)
	for {
		pkt, from, err := t.recv(buf)
		if err != nil {
			var derr *DecodeError
			if errors.As(err, &derr) {
				t.log.Debug("ignoring undecodable datagram", "error", derr)
				continue
			}
			return err
		}
		switch p := pkt.(type) {
		case *Ack:
			if p.Block != block {
				t.log.Warn("unexpected ack", "got", p.Block, "want", block)
				continue
			}
			t.server = from
			return nil
		case *Error:
			t.log.Error("transfer aborted by server", "code", p.Code, "message", p.Message)
			return &RemoteError{Code: p.Code, Message: p.Message}
		default:
			t.log.Debug("ignoring packet", "kind", packetName(pkt))
		}
	}
}
