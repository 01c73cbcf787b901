package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/downloads"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/tui"
)

var (
	tuiRefresh  int
	tuiHeadless bool
	tuiNoRemote bool
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Now Playing - current item, progress, skippable segments
  • Library - browse views and folders, item details
  • Downloads - the background download queue
  • History - what played this session

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  Tab          Switch panel
  Enter        Open / play (resume)
  r            Play from the beginning
  d            Queue download
  x            Cancel download
  Space        Play/Pause
  ←/→          Scrub (Enter commits, Esc cancels)
  n / p        Next / previous in queue
  s            Skip intro or credits
  S            Stop
  +/-          Volume up/down
  m            Mute`,
	Annotations: map[string]string{fullscreenAnnotation: "true"},
	RunE:        runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds (default from config)")
	tuiCmd.Flags().BoolVar(&tuiHeadless, "headless", false, "track playback without launching a player")
	tuiCmd.Flags().BoolVar(&tuiNoRemote, "no-remote", false, "do not accept remote-control commands")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withClient(func(e *env, c *client.Client) error {
		ctrl := newController(e, c, newSurface(tuiHeadless))
		defer ctrl.Close()

		if cfg.Remote.Enabled && !tuiNoRemote {
			rc, err := startRemote(ctx, e, ctrl)
			if err != nil {
				return fmt.Errorf("failed to start remote control: %w", err)
			}
			defer rc.Close()
		}

		m, err := downloads.New(e.db)
		if err != nil {
			return err
		}

		refresh := tuiRefresh
		if refresh == 0 {
			refresh = cfg.TUI.RefreshInterval
		}

		err = tui.Run(ctx, &tui.App{
			Library:     c,
			Player:      ctrl,
			Downloads:   m,
			DownloadDir: cfg.Downloads.Dir,
			RefreshRate: time.Duration(refresh) * time.Millisecond,
		})

		// The controller outlives the program loop; end any session still open.
		if stopErr := finishPlayback(e, ctrl); stopErr != nil && err == nil {
			err = stopErr
		}
		return err
	})
}
