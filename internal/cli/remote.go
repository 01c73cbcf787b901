package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/log"
	"github.com/tessro/finch/internal/playback"
	"github.com/tessro/finch/internal/remote"
	"golang.org/x/sync/errgroup"
)

var (
	remoteMetricsAddr string
	remoteHeadless    bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote [item]",
	Short: "Run as a remote-controllable player",
	Long: `Connect to the server's remote-control channel and carry out commands sent
from other clients (play/pause, seek, volume, next/previous, messages) until
interrupted. An item, when given, starts playing first.

With --metrics-addr, an HTTP endpoint serves /metrics (Prometheus), /healthz
and /session.

Examples:
  finch remote
  finch remote --headless --metrics-addr :9090
  finch remote "Kind of Blue"`,
	RunE: runRemote,
}

func init() {
	remoteCmd.Flags().StringVar(&remoteMetricsAddr, "metrics-addr", "", "serve metrics and health on this address")
	remoteCmd.Flags().BoolVar(&remoteHeadless, "headless", false, "track playback without launching a player")
	rootCmd.AddCommand(remoteCmd)
}

// remoteControl is a live remote-control channel that follows credential
// changes on disk.
type remoteControl struct {
	channel *remote.Channel
	watcher *remote.CredentialsWatcher
}

// startRemote connects the remote-control channel for e's server and routes
// its commands to ctrl.
func startRemote(ctx context.Context, e *env, ctrl *playback.Controller) (*remoteControl, error) {
	logger := log.WithComponent("remote")

	channel := remote.NewChannel(e.creds.ServerURL,
		func(cmd remote.Command) {
			if err := remote.Dispatch(ctx, ctrl, cmd); err != nil {
				logger.Warn().Err(err).Str("command", cmd.Kind.String()).Msg("remote command failed")
			}
		},
		remote.WithKeepAlive(time.Duration(cfg.Remote.KeepAlive)*time.Second),
		remote.WithChannelLogger(logger),
	)

	watcher := remote.NewCredentialsWatcher(e.storage, func(ctx context.Context, deviceID, token string) {
		if err := channel.SetIdentity(ctx, deviceID, token); err != nil {
			logger.Warn().Err(err).Msg("remote channel unavailable")
		}
	})
	if err := watcher.Start(ctx); err != nil {
		_ = channel.Close()
		return nil, err
	}

	return &remoteControl{channel: channel, watcher: watcher}, nil
}

func (r *remoteControl) Status() remote.Status {
	return r.channel.Status()
}

func (r *remoteControl) Close() error {
	return errors.Join(r.watcher.Close(), r.channel.Close())
}

func runRemote(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.client()
	if err != nil {
		return err
	}

	ctrl := newController(e, c, newSurface(remoteHeadless))
	defer ctrl.Close()

	// Advertise the device so other clients can target it before anything plays.
	if err := c.PostCapabilities(ctx, client.Capabilities{
		PlayableMediaTypes:   []string{"Audio", "Video"},
		SupportedCommands:    remote.SupportedCommands,
		SupportsMediaControl: true,
	}); err != nil {
		logger := log.WithComponent("remote")
		logger.Warn().Err(err).Msg("post capabilities")
	}

	rc, err := startRemote(ctx, e, ctrl)
	if err != nil {
		return fmt.Errorf("failed to start remote control: %w", err)
	}
	defer rc.Close()

	if len(args) > 0 {
		item, err := findItem(ctx, c, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		queue, err := queueFor(ctx, c, item)
		if err != nil {
			return err
		}
		ctrl.SetQueue(queue, 0)
		if err := ctrl.Begin(ctx, &queue[0], "", queue[0].ResumePosition(), playback.BeginOptions{}); err != nil {
			return err
		}
	}

	addr := remoteMetricsAddr
	if addr == "" {
		addr = cfg.Remote.MetricsAddr
	}

	if !JSONOutput() {
		fmt.Printf("Listening for remote commands as %s (%s)\n", e.device.Name, rc.Status())
		if addr != "" {
			fmt.Printf("Metrics on http://%s/metrics\n", addr)
		}
		fmt.Println("Press Ctrl+C to stop.")
	}

	g, gctx := errgroup.WithContext(ctx)
	if addr != "" {
		g.Go(func() error {
			return remote.Serve(gctx, addr, remote.NewRouter(ctrl, rc))
		})
	}
	g.Go(func() error {
		return printRemoteEvents(gctx, ctrl.Subscribe())
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return finishPlayback(e, ctrl)
}

// printRemoteEvents reports state changes and messages until ctx ends.
func printRemoteEvents(ctx context.Context, sub *playback.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case ev := <-sub.StateChanged:
			if JSONOutput() {
				out := map[string]any{"event": "state", "state": ev.Current.String()}
				if ev.Session != nil {
					out["item_id"] = ev.Session.Item.ID
				}
				_ = printJSON(out)
				continue
			}
			name := ""
			if ev.Session != nil {
				name = " " + ev.Session.Item.DisplayName()
			}
			fmt.Printf("%s %s%s\n", time.Now().Format("15:04:05"), ev.Current, name)
		case ev := <-sub.Error:
			fmt.Fprintf(os.Stderr, "Playback error: %v\n", ev.Err)
		case ev := <-sub.Message:
			fmt.Printf("💬 %s: %s\n", ev.Header, ev.Text)
		case <-sub.PositionChanged:
		}
	}
}
