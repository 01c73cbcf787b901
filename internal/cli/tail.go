package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/tail"
)

var (
	tailAll       bool
	tailDevice    string
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Watch your sessions on the server and print playback changes as they happen.

Events tracked:
  - Playback started or stopped
  - Item changes
  - Pause/Resume
  - Seeks
  - Volume changes

Templates receive .Time, .Timestamp, .Type, .Emoji, .Device, .User, .Title,
.ItemID, .ItemType, .Position and .Volume.

Examples:
  finch tail
  finch tail --device "Living Room" --timestamp
  finch tail --format '{{.Time}} {{.Device}}: {{.Type}} {{.Title}}'`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVarP(&tailAll, "all", "a", false, "watch sessions of every user (admin)")
	tailCmd.Flags().StringVarP(&tailDevice, "device", "d", "", "device to watch")
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", 0, "poll interval (default from config)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withClient(func(e *env, c *client.Client) error {
		var opts []tail.WatcherOption
		if !tailAll {
			opts = append(opts, tail.ForUser(e.creds.UserID))
		}
		if tailDevice != "" {
			s, err := findSession(ctx, c, tailDevice)
			if err != nil {
				return err
			}
			opts = append(opts, tail.ForDevice(s.DeviceID))
		}

		interval := tailInterval
		if interval == 0 {
			interval = time.Duration(cfg.Tail.Interval) * time.Millisecond
		}

		formatter := tail.NewFormatter(
			tail.WithEmoji(!tailNoEmoji),
			tail.WithTimestamp(tailTimestamp),
			tail.WithTemplate(tailFormat),
		)
		watcher := tail.NewWatcher(c, interval, opts...)

		errCh := make(chan error, 1)
		go func() {
			errCh <- watcher.Start(ctx)
		}()

		for {
			select {
			case event, ok := <-watcher.Events():
				if !ok {
					return waitTail(errCh)
				}
				printTailEvent(formatter, event)
			case err := <-errCh:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	})
}

func waitTail(errCh <-chan error) error {
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printTailEvent(f *tail.Formatter, event tail.Event) {
	if !JSONOutput() {
		fmt.Println(f.Format(event))
		return
	}

	s := event.Session()
	out := map[string]any{
		"time":  event.Timestamp,
		"event": event.Type.String(),
	}
	if s != nil {
		out["session_id"] = s.ID
		out["device"] = s.DeviceName
		out["user"] = s.UserName
		if s.NowPlaying != nil {
			out["item_id"] = s.NowPlaying.ID
			out["item"] = s.NowPlaying.DisplayName()
		}
		if s.Position.Known {
			out["position_ticks"] = int64(s.Position.Ticks)
		}
	}
	_ = printJSON(out)
}
