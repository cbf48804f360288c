package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
// It runs before the config is loaded so it reads the environment directly.
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339
	Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Configure sets the global level and output format. Unknown levels fall back to info and
// any format other than "json" writes to a console writer.
func Configure(level, format string) {
	configure(level, format, os.Stdout, os.Stderr)
}

func configure(level, format string, jsonOut, consoleOut io.Writer) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.Logger = zerolog.New(jsonOut).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: consoleOut, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}
