// Package logger configures the process-wide zerolog logger. Console
// output is for development; anything else gets timestamped JSON.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Init(level string, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	default:
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func Get() zerolog.Logger {
	return log.Logger
}
