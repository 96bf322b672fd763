// Package main 启动应用程序
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/filterbot/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
