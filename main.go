package main

import (
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"dirtree/cmd"
	"dirtree/pkg/logging"
	"dirtree/pkg/version"
)

func main() {
	logger, level, err := logging.New(version.AppName, version.Version)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cmd.Execute(logger, &level); err != nil {
		syncLogger(logger)
		logger.Fatal("dirtree execution failed", zap.Error(err))
	}
	syncLogger(logger)
}

// syncLogger flushes the logger when stderr can be synced. Terminals and
// regular files can; pipes report "invalid argument".
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if syncErr := logger.Sync(); syncErr != nil {
		lowerErr := strings.ToLower(syncErr.Error())
		if !strings.Contains(lowerErr, "invalid argument") {
			log.Printf("Logger sync failed: %v", syncErr)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
