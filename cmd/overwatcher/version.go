package main

import (
	"fmt"
	"runtime"

	"github.com/embedwatch/overwatcher/internal/buildinfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "overwatcher %s\n", buildinfo.Version)
		fmt.Fprintf(w, "  commit:   %s\n", buildinfo.Commit)
		fmt.Fprintf(w, "  built:    %s\n", buildinfo.Date)
		fmt.Fprintf(w, "  revision: %d\n", buildinfo.Revision())
		fmt.Fprintf(w, "  go:       %s\n", runtime.Version())
		fmt.Fprintf(w, "  os/arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
