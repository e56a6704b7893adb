package tftp

import (
	"fmt"
	"strconv"
	"strings"
)

// Block size bounds from RFC 2348 and the protocol defaults that apply when
// an option is not granted.
const (
	DefaultBlockSize = 512
	MinBlockSize     = 8
	MaxBlockSize     = 65464
)

// Option names understood by this client.
const (
	optBlksize = "blksize"
	optTsize   = "tsize"
)

var (
	// ErrBlockSizeRange is returned when a requested block size falls
	// outside [MinBlockSize, MaxBlockSize]. The value is rejected, never
	// clamped; the caller has to supply a valid one.
	ErrBlockSizeRange = fmt.Errorf("block size must be between %d and %d", MinBlockSize, MaxBlockSize)

	// ErrNegativeTsize is returned for a negative transfer size.
	ErrNegativeTsize = fmt.Errorf("transfer size cannot be negative")
)

// Options holds the RFC 2347 option pairs attached to a request or OACK.
// Only blksize and tsize carry meaning for this client; unrecognized names
// are kept verbatim so they round-trip, but they have no negotiated effect.
type Options struct {
	Blksize *int
	Tsize   *int64

	extras []optionPair
}

type optionPair struct {
	name  string
	value string
}

// SetBlksize validates and records a requested block size.
func (o *Options) SetBlksize(n int) error {
	if n < MinBlockSize || n > MaxBlockSize {
		return ErrBlockSizeRange
	}
	v := n
	o.Blksize = &v
	return nil
}

// SetTsize records a transfer size: 0 on a read request (size unknown to
// the client), the exact file length on a write request.
func (o *Options) SetTsize(n int64) error {
	if n < 0 {
		return ErrNegativeTsize
	}
	v := n
	o.Tsize = &v
	return nil
}

// IsZero reports whether no options are set at all.
func (o Options) IsZero() bool {
	return o.Blksize == nil && o.Tsize == nil && len(o.extras) == 0
}

// appendWire appends the option suffix shared by RRQ, WRQ and OACK packets:
// for each option, name NUL decimal-value NUL.
func (o Options) appendWire(b []byte) []byte {
	put := func(name, value string) {
		b = append(b, name...)
		b = append(b, 0)
		b = append(b, value...)
		b = append(b, 0)
	}
	if o.Blksize != nil {
		put(optBlksize, strconv.Itoa(*o.Blksize))
	}
	if o.Tsize != nil {
		put(optTsize, strconv.FormatInt(*o.Tsize, 10))
	}
	for _, p := range o.extras {
		put(p.name, p.value)
	}
	return b
}

// parseOptions scans the option suffix of a request or OACK packet,
// alternately collecting names and values. A pair with an empty value is
// skipped. Option names are case-insensitive on the wire.
func parseOptions(b []byte) (Options, error) {
	var opts Options
	for len(b) > 0 {
		name, rest, err := nextString(b)
		if err != nil {
			return Options{}, err
		}
		value, rest, err := nextString(rest)
		if err != nil {
			return Options{}, err
		}
		b = rest
		if value == "" {
			continue
		}
		switch strings.ToLower(name) {
		case optBlksize:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Options{}, fmt.Errorf("blksize value %q: %w", value, err)
			}
			v := n
			opts.Blksize = &v
		case optTsize:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Options{}, fmt.Errorf("tsize value %q: %w", value, err)
			}
			v := n
			opts.Tsize = &v
		default:
			opts.extras = append(opts.extras, optionPair{name: name, value: value})
		}
	}
	return opts, nil
}

// TransferParams holds the values a transfer actually runs with once the
// first server reply has been classified.
type TransferParams struct {
	Blksize int
	Tsize   int64
}

// defaultParams are the values a transfer runs with when no options were
// granted: a plain ACK or bare DATA reply means both protocol defaults.
func defaultParams() TransferParams {
	return TransferParams{Blksize: DefaultBlockSize, Tsize: 0}
}

// negotiate resolves an OACK against the protocol defaults. A granted
// option overrides the default; an option the client requested but the
// server left out of the OACK reverts to its default (RFC 2347). The
// requested values themselves never apply on their own. Granted values are
// held to the same bounds as requested ones: a blksize outside
// [MinBlockSize, MaxBlockSize] or a negative tsize is a protocol violation
// and the transfer must not run with it.
func negotiate(granted Options) (TransferParams, error) {
	p := defaultParams()
	if granted.Blksize != nil {
		if *granted.Blksize < MinBlockSize || *granted.Blksize > MaxBlockSize {
			return TransferParams{}, fmt.Errorf("server granted blksize %d: %w", *granted.Blksize, ErrBlockSizeRange)
		}
		p.Blksize = *granted.Blksize
	}
	if granted.Tsize != nil {
		if *granted.Tsize < 0 {
			return TransferParams{}, fmt.Errorf("server granted tsize %d: %w", *granted.Tsize, ErrNegativeTsize)
		}
		p.Tsize = *granted.Tsize
	}
	return p, nil
}
