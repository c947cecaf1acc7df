package main

import (
	"os"

	"github.com/grovetools/elementipelago/cli"
	"github.com/grovetools/elementipelago/cmd"
)

func main() {
	rootCmd, profiler := cmd.NewRootCmd()

	err := rootCmd.Execute()
	profiler.Finish(os.Stderr)
	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
