package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/downloads"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/log"
)

var (
	downloadsDir   string
	downloadsWatch bool
	downloadsAll   bool
)

var downloadsCmd = &cobra.Command{
	Use:     "downloads",
	Aliases: []string{"dl"},
	Short:   "Manage the download queue",
	Long: `Queue items for offline use and fetch them in the background.

Examples:
  finch downloads add "The Matrix"
  finch downloads add "Kind of Blue"     # every track of the album
  finch downloads run --watch
  finch downloads list`,
}

var downloadsAddCmd = &cobra.Command{
	Use:   "add [item]",
	Short: "Queue an item, or every playable item in a folder",
	RunE:  runDownloadsAdd,
}

var downloadsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List queued and finished downloads",
	RunE:    runDownloadsList,
}

var downloadsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Download pending items",
	Long: `Download pending items with the configured concurrency and rate limit.
Interrupted downloads return to the queue.`,
	RunE: runDownloadsRun,
}

var downloadsCancelCmd = &cobra.Command{
	Use:   "cancel <id>...",
	Short: "Cancel downloads",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownloadsCancel,
}

var downloadsRemoveCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Remove downloads from the list (files are kept)",
	RunE:    runDownloadsRemove,
}

var downloadsRetryCmd = &cobra.Command{
	Use:   "retry <id>...",
	Short: "Queue failed downloads again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownloadsRetry,
}

func init() {
	downloadsAddCmd.Flags().StringVarP(&downloadsDir, "dir", "d", "", "download directory (default from config)")
	downloadsRunCmd.Flags().BoolVarP(&downloadsWatch, "watch", "w", false, "keep running and pick up new jobs")
	downloadsRemoveCmd.Flags().BoolVar(&downloadsAll, "finished", false, "remove every completed or failed download")

	downloadsCmd.AddCommand(downloadsAddCmd)
	downloadsCmd.AddCommand(downloadsListCmd)
	downloadsCmd.AddCommand(downloadsRunCmd)
	downloadsCmd.AddCommand(downloadsCancelCmd)
	downloadsCmd.AddCommand(downloadsRemoveCmd)
	downloadsCmd.AddCommand(downloadsRetryCmd)
	rootCmd.AddCommand(downloadsCmd)
}

// downloadPath returns where an item is saved inside dir.
func downloadPath(dir string, item *core.MediaItem) string {
	container := ""
	if len(item.MediaSources) > 0 {
		container = item.MediaSources[0].Container
	}
	name := item.Name
	if item.Type == core.ItemEpisode || item.Type.IsAudio() {
		name = item.DisplayName()
	}
	return filepath.Join(dir, downloads.FileName(name, container))
}

func runDownloadsAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(e *env, c *client.Client) error {
		item, err := findItem(ctx, c, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		items, err := queueFor(ctx, c, item)
		if err != nil {
			return err
		}

		m, err := downloads.New(e.db)
		if err != nil {
			return err
		}

		dir := downloadsDir
		if dir == "" {
			dir = cfg.Downloads.Dir
		}

		type added struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Path string `json:"path"`
		}
		var out []added
		for i := range items {
			path := downloadPath(dir, &items[i])
			id, err := m.Enqueue(items[i].ID, items[i].DisplayName(), path)
			if err != nil {
				return fmt.Errorf("failed to queue %s: %w", items[i].Name, err)
			}
			out = append(out, added{ID: id, Name: items[i].DisplayName(), Path: path})
		}

		if JSONOutput() {
			return printJSON(out)
		}
		for _, a := range out {
			fmt.Printf("Queued #%d %s\n", a.ID, a.Name)
		}
		fmt.Println("Run 'finch downloads run' to start downloading.")
		return nil
	})
}

func withDownloads(fn func(m *downloads.Manager) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := downloads.New(e.db)
	if err != nil {
		return err
	}
	return fn(m)
}

func runDownloadsList(cmd *cobra.Command, args []string) error {
	return withDownloads(func(m *downloads.Manager) error {
		jobs, err := m.List()
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(jobs)
		}
		if len(jobs) == 0 {
			fmt.Println("No downloads")
			return nil
		}

		table := NewTable("ID", "STATUS", "PROGRESS", "NAME", "SIZE")
		for i := range jobs {
			j := &jobs[i]
			status := j.Status
			if j.Status == downloads.StatusFailed && j.Error != "" {
				status += ": " + TruncateString(j.Error, 30)
			}
			table.Row(
				strconv.FormatInt(j.ID, 10),
				status,
				fmt.Sprintf("%s %3.0f%%", FormatProgress(j.Percent(), 15), j.Percent()),
				TruncateString(j.Name, 40),
				j.Describe(),
			)
		}
		table.Flush()
		return nil
	})
}

func runDownloadsRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withClient(func(e *env, c *client.Client) error {
		m, err := downloads.New(e.db)
		if err != nil {
			return err
		}

		logger := log.WithComponent("downloads")
		worker := downloads.NewWorker(m, c, downloads.WorkerOptions{
			Concurrency: cfg.Downloads.Concurrency,
			RateLimit:   cfg.Downloads.RateLimit,
			Logger:      &logger,
		})

		if !JSONOutput() {
			go reportDownloads(ctx, m)
		}

		for {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			if !downloadsWatch {
				break
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(10 * time.Second):
			}
		}

		jobs, err := m.List()
		if err != nil {
			return err
		}
		var done, failed int
		for _, j := range jobs {
			switch j.Status {
			case downloads.StatusCompleted:
				done++
			case downloads.StatusFailed:
				failed++
			}
		}
		if JSONOutput() {
			return printJSON(map[string]int{"completed": done, "failed": failed})
		}
		fmt.Printf("Done: %d completed, %d failed\n", done, failed)
		return nil
	})
}

// reportDownloads prints active job progress every few seconds.
func reportDownloads(ctx context.Context, m *downloads.Manager) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs, err := m.List()
			if err != nil {
				continue
			}
			for i := range jobs {
				if jobs[i].Status == downloads.StatusDownloading {
					fmt.Printf("  #%d %s %3.0f%% (%s)\n", jobs[i].ID, TruncateString(jobs[i].Name, 40), jobs[i].Percent(), jobs[i].Describe())
				}
			}
		}
	}
}

// eachJob applies fn to every id and reports per-id failures together.
func eachJob(args []string, verb string, fn func(id int64) error) error {
	var result finchErrors.PartialResult[[]int64]
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
		if err != nil {
			result.AddError(fmt.Errorf("invalid download id %q", arg))
			continue
		}
		if err := fn(id); err != nil {
			result.AddError(fmt.Errorf("#%d: %w", id, err))
			continue
		}
		result.Data = append(result.Data, id)
	}

	if JSONOutput() {
		out := map[string]any{verb: result.Data}
		if result.HasErrors() {
			out["errors"] = result.ErrorSummary()
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		for _, id := range result.Data {
			fmt.Printf("%s #%d\n", strings.ToUpper(verb[:1])+verb[1:], id)
		}
	}

	if result.HasErrors() {
		return errors.New(result.ErrorSummary())
	}
	return nil
}

func runDownloadsCancel(cmd *cobra.Command, args []string) error {
	return withDownloads(func(m *downloads.Manager) error {
		return eachJob(args, "cancelled", m.Cancel)
	})
}

func runDownloadsRetry(cmd *cobra.Command, args []string) error {
	return withDownloads(func(m *downloads.Manager) error {
		return eachJob(args, "requeued", m.Retry)
	})
}

func runDownloadsRemove(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !downloadsAll {
		return fmt.Errorf("give download ids or --finished")
	}
	return withDownloads(func(m *downloads.Manager) error {
		if downloadsAll {
			jobs, err := m.List()
			if err != nil {
				return err
			}
			for _, j := range jobs {
				if j.Status == downloads.StatusCompleted || j.Status == downloads.StatusFailed {
					args = append(args, strconv.FormatInt(j.ID, 10))
				}
			}
		}
		return eachJob(args, "removed", m.Remove)
	})
}
