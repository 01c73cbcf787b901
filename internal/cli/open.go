package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/browser"
	"github.com/tessro/finch/internal/jellyfin/client"
)

var (
	openImage bool
	openPrint bool
)

var openCmd = &cobra.Command{
	Use:   "open [item]",
	Short: "Open an item in the server's web interface",
	Long: `Open an item's page in the server's web interface using the default browser.
Without an item, the server's home page opens.

Examples:
  finch open "The Matrix"
  finch open --image 0123456789abcdef0123456789abcdef`,
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openImage, "image", false, "open the item's primary image instead")
	openCmd.Flags().BoolVar(&openPrint, "print", false, "print the URL without opening it")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(_ *env, c *client.Client) error {
		url := c.ServerURL() + "/web/"
		name := "server"

		if len(args) > 0 {
			item, err := findItem(ctx, c, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			name = item.DisplayName()
			url = c.WebURL(item.ID)
			if openImage {
				url = c.ImageURL(item.ID, 0)
			}
		}

		if JSONOutput() {
			return printJSON(map[string]string{"name": name, "url": url})
		}
		if openPrint {
			fmt.Println(url)
			return nil
		}
		if err := browser.Open(url); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
		fmt.Printf("Opened %s\n", name)
		return nil
	})
}
