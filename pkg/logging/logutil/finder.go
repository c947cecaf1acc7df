// Package logutil locates the log files written by the file sink.
package logutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/elementipelago/config"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/util/pathutil"
)

// FindLogFile returns the log file for cfg and the directory holding it.
// With logging.file.path set that file is returned as is; otherwise the
// latest file in the default logs directory.
func FindLogFile(cfg *config.Config) (logFile string, logsDir string, err error) {
	var logCfg logging.Config
	if cfg != nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			return "", "", err
		}
	}

	if logCfg.File.Path != "" {
		expanded, err := pathutil.Expand(logCfg.File.Path)
		if err != nil {
			return "", "", err
		}
		return expanded, filepath.Dir(expanded), nil
	}

	logsDir = logging.DefaultLogsDir()
	logFile, err = FindLatestLogFile(logsDir)
	return logFile, logsDir, err
}

// FindLatestLogFile finds the most recently modified .log file in dir,
// preferring files with content over empty ones.
func FindLatestLogFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	var latest, latestNonEmpty os.FileInfo
	var latestPath, latestNonEmptyPath string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if latest == nil || info.ModTime().After(latest.ModTime()) {
			latest, latestPath = info, path
		}
		if info.Size() > 0 && (latestNonEmpty == nil || info.ModTime().After(latestNonEmpty.ModTime())) {
			latestNonEmpty, latestNonEmptyPath = info, path
		}
	}

	if latestNonEmpty != nil {
		return latestNonEmptyPath, nil
	}
	if latest == nil {
		return "", fmt.Errorf("no log files found in %s", dir)
	}
	return latestPath, nil
}
