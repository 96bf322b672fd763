// Package cmd contains the command line applications for the project.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/log"
)

var (
	// configPath 配置文件或目录路径.
	configPath string
	// debug 打印更详细的配置信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "filterbot",
		Short:         "A Telegram bot that searches and delivers indexed media files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose output")

	registerServeCommands()
	registerConfigsCommands()
	registerStoreCommands()
	registerKVCommands()
	registerMQCommands()
	registerVersionCommands()
}

// loadConfig 加载并校验配置，随后按配置初始化日志.
func loadConfig() (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Init()

	return configs.GetConfig(), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
