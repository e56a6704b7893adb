package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/brutella/dnssd"
	"github.com/stretchr/testify/assert"
)

func TestEntryKey(t *testing.T) {
	e := dnssd.BrowseEntry{Name: "印刷室", Type: "_tftp._udp", Domain: "local"}
	assert.Equal(t, "印刷室._tftp._udp.local", entryKey(e))
}

func TestDiscoverClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &MDNSAdapter{}
	outCh := adapter.Discover(ctx, "_tftp._udp.local.")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case result, ok := <-outCh:
			if !ok {
				return // channel closed, no stray error reported
			}
			assert.NoError(t, result.Err)
		case <-deadline:
			t.Fatal("Discover channel not closed after cancellation")
		}
	}
}
