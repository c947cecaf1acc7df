package cmd

import (
	"github.com/grovetools/elementipelago/cli"
	"github.com/grovetools/elementipelago/pkg/profiling"
	"github.com/grovetools/elementipelago/version"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the elementipelago command tree. Call the profiler's
// Finish after Execute.
func NewRootCmd() (*cobra.Command, *profiling.CobraProfiler) {
	root := cli.NewStandardCommand("elementipelago", "Multiworld client for Elementipelago")
	root.Long = `Multiworld client for Elementipelago.

Logs into an Archipelago room, keeps the datapackage cache of every game in
the room up to date and reports received items and crafted elements.`

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(root)

	info := version.GetInfo()
	root.AddCommand(
		NewConnectCmd(),
		NewCacheCmd(),
		NewConfigCmd(),
		NewPathsCmd(),
		NewLogsCmd(),
		cli.NewVersionCommand("elementipelago", info),
	)
	cli.SetVersionTemplate(root, info)
	cli.ApplyStyledHelpRecursive(root)
	return root, profiler
}
