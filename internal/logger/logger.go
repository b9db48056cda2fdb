package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates the run logger: full-detail JSON to the log file, info and
// above to the console. The file is truncated per run; operators diagnose
// failures from the file, not the console.
func New(logFile string) (zerolog.Logger, func(), error) {
	f, err := os.Create(logFile)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	filtered := &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: console},
		Level:  zerolog.InfoLevel,
	}

	log := zerolog.New(zerolog.MultiLevelWriter(f, filtered)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}
