package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/elementipelago/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput represents the platform paths used by elementipelago.
type PathsOutput struct {
	ConfigDir      string `json:"config_dir"`
	StateDir       string `json:"state_dir"`
	CacheDir       string `json:"cache_dir"`
	DataPackageDir string `json:"datapackage_dir"`
	StateFile      string `json:"state_file"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by elementipelago",
		Long: `Print the paths used by elementipelago as JSON.

- config_dir: global elementipelago.yml
- state_dir: last successful connection
- cache_dir: regenerable data
- datapackage_dir: one cached datapackage per game`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir:      paths.ConfigDir(),
				StateDir:       paths.StateDir(),
				CacheDir:       paths.CacheDir(),
				DataPackageDir: paths.DataPackageDir(),
				StateFile:      paths.StateFilePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	return cmd
}
