// In file: cmd/gateway/version.go
package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gateway build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "gateway %s (commit %s, built %s, %s, %s)\n",
			info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
