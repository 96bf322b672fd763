package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yeisme/filterbot/pkg/configs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "filterbot %s (%s %s/%s)\n", configs.AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// registerVersionCommands 注册 version 命令.
func registerVersionCommands() {
	rootCmd.AddCommand(versionCmd)
}
