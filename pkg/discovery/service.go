package discovery

import (
	"context"
	"net"
)

const (
	// DefaultServiceType is the mDNS service type TFTP servers advertise
	// themselves under.
	DefaultServiceType = "_tftp._udp"
	DefaultDomain      = "local"
)

// ServiceInfo identifies one advertised TFTP server on the local network.
type ServiceInfo struct {
	Name   string // instance name
	Type   string // service type, e.g. "_tftp._udp"
	Domain string // domain, e.g. "local"
	Addr   net.IP
	Port   int
}

// Result carries either a snapshot of the currently visible services or a
// browse failure.
type Result struct {
	Services []ServiceInfo
	Err      error
}

// Adapter abstracts the browse mechanism so the CLI can be tested without
// multicast traffic.
type Adapter interface {
	Discover(ctx context.Context, service string) <-chan Result
}
