// Package logger provides a global logger for the application
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Options selects the log level. Debug and Trace override the level derived
// from Environment.
type Options struct {
	Environment string
	Debug       bool
	Trace       bool

	// Out defaults to os.Stderr.
	Out io.Writer
}

// Init initializes the global zerolog logger with console output.
// Example usage:
//
//	logger.Init(logger.Options{Environment: os.Getenv("ENVIRONMENT")})
//
// Then, `genapp --debug "a todo app"`
func Init(opts Options) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     out,
		NoColor: !isTerminal(out),
	}).With().Caller().Logger()

	zerolog.SetGlobalLevel(Level(opts))

	switch env := environment(opts.Environment); env {
	case "dev", "test", "prod":
	default:
		log.Warn().Str("environment", env).Msg("Unknown environment - defaulting to production log level (info and above)")
	}
	log.Debug().Str("environment", environment(opts.Environment)).Str("level", zerolog.GlobalLevel().String()).Msg("logger initialized")
}

// Level resolves the log level for opts without touching global state.
func Level(opts Options) zerolog.Level {
	switch {
	case opts.Debug:
		return zerolog.DebugLevel
	case opts.Trace:
		return zerolog.TraceLevel
	}

	switch environment(opts.Environment) {
	case "dev", "test":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

func environment(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return "prod"
	}
	return env
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
