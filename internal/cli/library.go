package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/trickplay"
)

var (
	browseLimit  int
	browseStart  int
	browseLatest bool
	searchKind   string
	searchLimit  int
	personLimit  int
	resumeLimit  int
)

var librariesCmd = &cobra.Command{
	Use:     "libraries",
	Aliases: []string{"libs"},
	Short:   "List your libraries",
	RunE:    runLibraries,
}

var browseCmd = &cobra.Command{
	Use:   "browse <library|folder-id>",
	Short: "List the contents of a library or folder",
	Long: `List the contents of a library (by name or id) or of any folder item.

Examples:
  finch browse Movies
  finch browse Movies --latest
  finch browse 5d0b2c1e9a3f4e1c8b7a6d5e4f3a2b1c --start 100`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the server",
	Long: `Search movies, series, episodes and music by title.

Examples:
  finch search alien
  finch search --type episode "pilot"
  finch search --type music "blue train"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var infoCmd = &cobra.Command{
	Use:   "info [item]",
	Short: "Show details for an item",
	Long:  `Show metadata, versions, streams and cast for an item given by id or title.`,
	RunE:  runInfo,
}

var personCmd = &cobra.Command{
	Use:   "person <id|name>",
	Short: "Show a person and what they appear in",
	Args:  cobra.ExactArgs(1),
	RunE:  runPerson,
}

var resumeCmd = &cobra.Command{
	Use:     "resume",
	Aliases: []string{"continue"},
	Short:   "List items you can continue watching",
	RunE:    runResume,
}

func init() {
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 50, "maximum items to list")
	browseCmd.Flags().IntVar(&browseStart, "start", 0, "index of the first item")
	browseCmd.Flags().BoolVar(&browseLatest, "latest", false, "list recently added items instead")
	searchCmd.Flags().StringVarP(&searchKind, "type", "t", "", "restrict to movie, series, episode or music")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum results")
	personCmd.Flags().IntVarP(&personLimit, "limit", "n", 25, "maximum items to list")
	resumeCmd.Flags().IntVarP(&resumeLimit, "limit", "n", 20, "maximum items to list")

	rootCmd.AddCommand(librariesCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(personCmd)
	rootCmd.AddCommand(resumeCmd)
}

// withClient opens the local environment and an authenticated client for
// the duration of fn.
func withClient(fn func(e *env, c *client.Client) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.client()
	if err != nil {
		return err
	}
	return fn(e, c)
}

func runLibraries(cmd *cobra.Command, args []string) error {
	return withClient(func(_ *env, c *client.Client) error {
		views, err := c.GetViews(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list libraries: %w", err)
		}
		if JSONOutput() {
			return printJSON(views)
		}
		if len(views) == 0 {
			fmt.Println("No libraries")
			return nil
		}

		table := NewTable("NAME", "ITEMS", "ID")
		for _, v := range views {
			count := "-"
			if v.ChildCount > 0 {
				count = humanize.Comma(int64(v.ChildCount))
			}
			table.Row(typeIcon(v.Type)+" "+v.Name, count, v.ID)
		}
		table.Flush()
		return nil
	})
}

// findLibrary resolves a library by name or id. Unknown ids are passed
// through so any folder can be browsed.
func findLibrary(ctx context.Context, c *client.Client, ref string) (string, string, error) {
	views, err := c.GetViews(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to list libraries: %w", err)
	}
	for _, v := range views {
		if v.ID == ref || strings.EqualFold(v.Name, ref) {
			return v.ID, v.Name, nil
		}
	}
	if isItemID(ref) {
		return ref, ref, nil
	}

	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return "", "", finchErrors.WithSuggestion(
		fmt.Errorf("library %q not found", ref),
		"Available libraries: "+strings.Join(names, ", "),
	)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(_ *env, c *client.Client) error {
		parentID, name, err := findLibrary(ctx, c, args[0])
		if err != nil {
			return err
		}

		var page *client.ItemPage
		if browseLatest {
			items, err := c.GetLatest(ctx, parentID, browseLimit)
			if err != nil {
				return fmt.Errorf("failed to list latest items: %w", err)
			}
			page = &client.ItemPage{Items: items, Total: len(items)}
		} else {
			page, err = c.GetItems(ctx, client.ItemQuery{
				ParentID:   parentID,
				SortBy:     "SortName",
				SortOrder:  "Ascending",
				StartIndex: browseStart,
				Limit:      browseLimit,
			})
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", name, err)
			}
		}

		if JSONOutput() {
			return printJSON(page)
		}

		printItems(page.Items)
		if shown := page.StartIndex + len(page.Items); shown < page.Total {
			fmt.Printf("\n%d-%d of %d. Use --start %d for more.\n", page.StartIndex+1, shown, page.Total, shown)
		}
		return nil
	})
}

// searchTypes maps a --type value to server item types.
func searchTypes(kind string) ([]core.ItemType, error) {
	switch strings.ToLower(kind) {
	case "":
		return []core.ItemType{core.ItemMovie, core.ItemSeries, core.ItemEpisode, core.ItemAudio, core.ItemMusicAlbum, core.ItemAudioBook}, nil
	case "movie", "movies":
		return []core.ItemType{core.ItemMovie}, nil
	case "series", "show", "shows":
		return []core.ItemType{core.ItemSeries}, nil
	case "episode", "episodes":
		return []core.ItemType{core.ItemEpisode}, nil
	case "music", "audio":
		return []core.ItemType{core.ItemAudio, core.ItemMusicAlbum, core.ItemMusicArtist}, nil
	case "person", "people":
		return []core.ItemType{core.ItemPerson}, nil
	default:
		return nil, fmt.Errorf("unknown type %q (movie, series, episode, music, person)", kind)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	types, err := searchTypes(searchKind)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	return withClient(func(_ *env, c *client.Client) error {
		results, err := c.Search(cmd.Context(), query, types, searchLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if JSONOutput() {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Printf("No results for %q\n", query)
			return nil
		}
		printItems(results)
		return nil
	})
}

func printItems(items []core.MediaItem) {
	if len(items) == 0 {
		fmt.Println("Empty")
		return
	}
	table := NewTable("", "TITLE", "DETAILS", "ID")
	for i := range items {
		item := &items[i]
		watched := ""
		if item.UserData.Played {
			watched = "✓"
		} else if item.UserData.PlaybackPositionTicks > 0 {
			watched = "◐"
		}
		table.Row(typeIcon(item.Type)+" "+watched, TruncateString(item.DisplayName(), 60), itemSubtitle(item), item.ID)
	}
	table.Flush()
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(_ *env, c *client.Client) error {
		item, err := findItem(ctx, c, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(item)
		}
		printItemDetail(item)
		return nil
	})
}

func printItemDetail(item *core.MediaItem) {
	fmt.Printf("%s %s\n", typeIcon(item.Type), item.DisplayName())
	if sub := itemSubtitle(item); sub != "" {
		fmt.Printf("  %s · %s\n", item.Type, sub)
	} else {
		fmt.Printf("  %s\n", item.Type)
	}
	fmt.Printf("  ID: %s\n", item.ID)

	ud := item.UserData
	switch {
	case ud.Played:
		fmt.Printf("  Watched")
		if !ud.LastPlayedDate.IsZero() {
			fmt.Printf(" %s", humanize.Time(ud.LastPlayedDate))
		}
		fmt.Println()
	case ud.PlaybackPositionTicks > 0:
		pct := 0.0
		if item.RunTimeTicks > 0 {
			pct = float64(ud.PlaybackPositionTicks) / float64(item.RunTimeTicks) * 100
		}
		fmt.Printf("  Resume at %s  %s\n", FormatDuration(ud.PlaybackPositionTicks.Duration()), FormatProgress(pct, 20))
	}

	if item.Overview != "" {
		fmt.Println()
		fmt.Println(wrap(item.Overview, 76, "  "))
	}

	for i := range item.MediaSources {
		src := &item.MediaSources[i]
		fmt.Println()
		name := src.Name
		if name == "" {
			name = src.ID
		}
		fmt.Printf("  Version: %s\n", name)
		var facts []string
		if src.Container != "" {
			facts = append(facts, src.Container)
		}
		if src.Size > 0 {
			facts = append(facts, humanize.IBytes(uint64(src.Size)))
		}
		if src.Bitrate > 0 {
			facts = append(facts, fmt.Sprintf("%.1f Mbps", float64(src.Bitrate)/1_000_000))
		}
		if src.SupportsDirectPlay {
			facts = append(facts, "direct play")
		} else if src.SupportsTranscoding {
			facts = append(facts, "transcode")
		}
		fmt.Printf("    %s\n", strings.Join(facts, ", "))
		for _, st := range src.MediaStreams {
			if st.Type == core.StreamVideo {
				continue
			}
			def := ""
			if st.IsDefault {
				def = " (default)"
			}
			fmt.Printf("    %-8s #%-2d %s%s\n", st.Type, st.Index, st.DisplayTitle, def)
		}
	}

	if item.Trickplay != nil {
		fmt.Printf("\n  Trickplay: %dx%d, %d thumbnails on %d sheets\n",
			item.Trickplay.Width, item.Trickplay.Height, item.Trickplay.ThumbnailCount, trickplay.Sheets(item.Trickplay))
	}

	if len(item.People) > 0 {
		fmt.Println()
		fmt.Println("  People:")
		for i, p := range item.People {
			if i >= 8 {
				fmt.Printf("    ...and %d more\n", len(item.People)-i)
				break
			}
			role := p.Type
			if p.Role != "" {
				role = p.Role
			}
			fmt.Printf("    %s (%s)  %s\n", p.Name, role, p.ID)
		}
	}
}

// wrap breaks text into lines of at most width runes, each prefixed by indent.
func wrap(text string, width int, indent string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > width {
			lines = append(lines, indent+line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, indent+line.String())
	}
	return strings.Join(lines, "\n")
}

func runPerson(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(_ *env, c *client.Client) error {
		ref := args[0]
		if !isItemID(ref) {
			found, err := c.Search(ctx, ref, []core.ItemType{core.ItemPerson}, 1)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(found) == 0 {
				return fmt.Errorf("%w: no person named %q", finchErrors.ErrItemNotFound, ref)
			}
			ref = found[0].ID
		}

		person, err := c.GetPerson(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to get person: %w", err)
		}
		items, err := c.GetItemsByPerson(ctx, person.ID, personLimit)
		if err != nil {
			return fmt.Errorf("failed to list items: %w", err)
		}

		if JSONOutput() {
			return printJSON(map[string]any{"person": person, "items": items})
		}

		fmt.Printf("%s %s\n", typeIcon(core.ItemPerson), person.Name)
		if person.Overview != "" {
			fmt.Println(wrap(person.Overview, 76, "  "))
		}
		fmt.Println()
		printItems(items)
		return nil
	})
}

func runResume(cmd *cobra.Command, args []string) error {
	return withClient(func(_ *env, c *client.Client) error {
		items, err := c.GetResumeItems(cmd.Context(), resumeLimit)
		if err != nil {
			return fmt.Errorf("failed to list resumable items: %w", err)
		}
		if JSONOutput() {
			return printJSON(items)
		}
		if len(items) == 0 {
			fmt.Println("Nothing to resume")
			return nil
		}

		table := NewTable("TITLE", "PROGRESS", "LEFT", "ID")
		for i := range items {
			item := &items[i]
			pct := 0.0
			left := "-"
			if item.RunTimeTicks > 0 {
				pct = float64(item.UserData.PlaybackPositionTicks) / float64(item.RunTimeTicks) * 100
				left = FormatDuration((item.RunTimeTicks - item.UserData.PlaybackPositionTicks).Duration())
			}
			table.Row(TruncateString(item.DisplayName(), 50), FormatProgress(pct, 20), left, item.ID)
		}
		table.Flush()
		return nil
	})
}
