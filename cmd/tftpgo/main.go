package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lanport/tftpgo/internal/util"
	"github.com/lanport/tftpgo/pkg/app"
	"github.com/lanport/tftpgo/pkg/discovery"
	"github.com/lanport/tftpgo/pkg/ui"
)

func main() {
	f, _ := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close log file", "error", err)
		}
	}()
	log.SetOutput(f)

	var (
		blksize int
		tsize   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tftpgo",
		Short: "A TFTP client for the terminal",
		Long:  "tftpgo downloads and uploads files over the Trivial File Transfer Protocol (RFC 1350), with blksize and tsize option negotiation (RFC 2347/2348/2349).",
	}

	cmd.PersistentFlags().IntVar(&blksize, "blksize", 0, "request a block size between 8 and 65464 (default: no negotiation, 512)")
	cmd.PersistentFlags().BoolVar(&tsize, "tsize", false, "request transfer size negotiation")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "receive deadline per packet (0 waits forever)")

	getCmd := &cobra.Command{
		Use:   "get <server> <remote-file> [local-file]",
		Short: "Download a file from a TFTP server",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveServer(args[0])
			if err != nil {
				return err
			}
			local := path.Base(args[1])
			if len(args) == 3 {
				local = args[2]
			}
			return runTransfer(app.Request{
				Server:     addr,
				Direction:  app.Download,
				RemoteName: args[1],
				LocalPath:  local,
				BlockSize:  blksize,
				WantTsize:  tsize,
				Timeout:    timeout,
			}, fmt.Sprintf("get %s", args[1]))
		},
	}

	putCmd := &cobra.Command{
		Use:   "put <server> <local-file> [remote-file]",
		Short: "Upload a file to a TFTP server",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := resolveServer(args[0])
			if err != nil {
				return err
			}
			remote := path.Base(args[1])
			if len(args) == 3 {
				remote = args[2]
			}
			return runTransfer(app.Request{
				Server:     addr,
				Direction:  app.Upload,
				RemoteName: remote,
				LocalPath:  args[1],
				BlockSize:  blksize,
				WantTsize:  tsize,
				Timeout:    timeout,
			}, fmt.Sprintf("put %s", args[1]))
		},
	}

	var wait time.Duration
	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse the local network for advertised TFTP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(wait)
		},
	}
	discoverCmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "how long to browse before printing results")

	cmd.AddCommand(getCmd)
	cmd.AddCommand(putCmd)
	cmd.AddCommand(discoverCmd)

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

// resolveServer turns a host or host:port argument into a UDP address,
// defaulting to the well-known TFTP port 69.
func resolveServer(server string) (*net.UDPAddr, error) {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "69")
	}
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, fmt.Errorf("resolve server %s: %w", server, err)
	}
	return addr, nil
}

// runTransfer runs the transfer controller and its progress UI side by
// side. Closing the UI cancels the controller; a transfer failure is shown
// by the UI and returned for the exit status.
func runTransfer(req app.Request, title string) error {
	application := app.New(req)
	p := tea.NewProgram(ui.NewModel(title, application))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var transferErr error
	g.Go(func() error {
		transferErr = application.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if transferErr != nil && !errors.Is(transferErr, context.Canceled) {
		return transferErr
	}
	return nil
}

// runDiscover browses for advertised servers for the given duration and
// prints the final snapshot.
func runDiscover(wait time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	adapter := &discovery.MDNSAdapter{}
	service := fmt.Sprintf("%s.%s.", discovery.DefaultServiceType, discovery.DefaultDomain)

	var found []discovery.ServiceInfo
	for result := range adapter.Discover(ctx, service) {
		if result.Err != nil {
			return result.Err
		}
		found = result.Services
	}

	if len(found) == 0 {
		fmt.Println("No TFTP servers found.")
		return nil
	}
	fmt.Printf("%s%s%s\n", util.PadRight("NAME", 28), util.PadRight("ADDRESS", 18), "PORT")
	for _, svc := range found {
		fmt.Printf("%s%s%s\n",
			util.PadRight(svc.Name, 28),
			util.PadRight(svc.Addr.String(), 18),
			strconv.Itoa(svc.Port))
	}
	return nil
}
