package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/jellyfin/auth"
)

var (
	// Set via ldflags at build time. Version is also reported to the server.
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if JSONOutput() {
			info := map[string]string{
				"version":    Version,
				"commit":     Commit,
				"build_date": BuildDate,
				"go_version": runtime.Version(),
				"os":         runtime.GOOS,
				"arch":       runtime.GOARCH,
				"client":     auth.ClientName,
			}
			_ = printJSON(info)
			return
		}

		fmt.Printf("finch %s\n", Version)
		if Verbose() {
			fmt.Printf("  commit:     %s\n", Commit)
			fmt.Printf("  built:      %s\n", BuildDate)
			fmt.Printf("  go version: %s\n", runtime.Version())
			fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("  client:     %s\n", auth.ClientName)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
