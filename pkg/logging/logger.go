package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. dev environments get a human readable console writer,
// everything else emits JSON lines.
func New(level, env string) zerolog.Logger {
	return newWithWriter(os.Stdout, level, env)
}

// Nop returns a logger that discards everything. Handy as a default in constructors and tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func newWithWriter(w io.Writer, level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
