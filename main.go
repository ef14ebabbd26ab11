package main

import (
	"os"

	"github.com/hepkit/hepkit/cmd"
	"github.com/hepkit/hepkit/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
