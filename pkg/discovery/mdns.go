package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/brutella/dnssd"
)

// MDNSAdapter browses for advertised TFTP servers via multicast DNS.
type MDNSAdapter struct{}

// Discover browses for the given service type until ctx is cancelled. Every
// add or remove produces a fresh snapshot of the visible services on the
// returned channel.
func (m *MDNSAdapter) Discover(ctx context.Context, service string) <-chan Result {
	var (
		mu      sync.Mutex
		entries = make(map[string]ServiceInfo)
		outCh   = make(chan Result, 10)
	)

	sendSnapshot := func() {
		mu.Lock()
		snapshot := make([]ServiceInfo, 0, len(entries))
		for _, entry := range entries {
			snapshot = append(snapshot, entry)
		}
		mu.Unlock()
		select {
		case outCh <- Result{Services: snapshot}:
		default:
		}
	}

	addFn := func(e dnssd.BrowseEntry) {
		if len(e.IPs) == 0 {
			return
		}
		mu.Lock()
		entries[entryKey(e)] = ServiceInfo{
			Name:   e.Name,
			Type:   e.Type,
			Domain: e.Domain,
			Addr:   e.IPs[0],
			Port:   e.Port,
		}
		mu.Unlock()
		sendSnapshot()
	}

	rmvFn := func(e dnssd.BrowseEntry) {
		mu.Lock()
		delete(entries, entryKey(e))
		mu.Unlock()
		sendSnapshot()
	}

	go func() {
		defer close(outCh)
		if err := dnssd.LookupType(ctx, service, addFn, rmvFn); err != nil && ctx.Err() == nil {
			select {
			case outCh <- Result{Err: fmt.Errorf("mDNS lookup failed: %w", err)}:
			default:
			}
		}
	}()

	return outCh
}

func entryKey(e dnssd.BrowseEntry) string {
	return fmt.Sprintf("%s.%s.%s", e.Name, e.Type, e.Domain)
}
