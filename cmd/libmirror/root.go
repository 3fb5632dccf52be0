package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "libmirror",
	Short: "Incrementally mirror a remote content library to local storage",
	Long: `libmirror keeps a local mirror of a purchased digital-content library.
It enumerates products and files from the remote catalog, downloads only
what is new or changed, verifies integrity, and retires cache metadata
for items the catalog no longer reports.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the libmirror version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("libmirror", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(syncCmd, versionCmd)
}
