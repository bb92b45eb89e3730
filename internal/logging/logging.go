package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It discards everything until Setup
// runs; stdout belongs to the terminal UI, so log output goes to a file.
var Logger = zerolog.New(io.Discard)

// DefaultLogPath returns the default log file location,
// ~/.local/state/fieldops/fieldops.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "fieldops.log")
	}
	return filepath.Join(home, ".local", "state", "fieldops", "fieldops.log")
}

// Setup points the global logger at the given file, creating parent
// directories as needed. The returned closer flushes and closes the file.
func Setup(path string) (io.Closer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}
