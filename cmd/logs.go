package cmd

import (
	"bufio"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/elementipelago/cli"
	"github.com/grovetools/elementipelago/pkg/logging/logutil"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

func NewLogsCmd() *cobra.Command {
	var (
		follow   bool
		lines    int
		pathOnly bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the client log file",
		Long: `Show the client log file.

Only written when logging.file.enabled is set in elementipelago.yml. The
file is logging.file.path, or the latest file in the state logs directory.

Examples:
  elementipelago logs --lines 50
  elementipelago logs --follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			file, _, err := logutil.FindLogFile(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if pathOnly {
				fmt.Fprintln(out, file)
				return nil
			}

			if err := printLastLines(out, file, lines); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return followLogFile(cmd, file)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of trailing lines to print (0 for all)")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Only print the log file path")
	return cmd
}

// printLastLines writes the last n lines of path, or all of them for n <= 0.
func printLastLines(w io.Writer, path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var ring []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring = append(ring, scanner.Text())
		if n > 0 && len(ring) > n {
			ring = ring[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	for _, line := range ring {
		fmt.Fprintln(w, line)
	}
	return nil
}

func followLogFile(cmd *cobra.Command, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
