package logger

import (
	"io"
	"os"
	"rental/config"
	"rental/shared/constant"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger() {
	Init(os.Stdout, true)
}

// Init points the global logger at out. Console output is meant for local runs,
// production writes plain JSON lines.
func Init(out io.Writer, console bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	log.Trace().Msg("Zerolog initialized.")
}

// Configure applies the environment dependent output format and the configured level.
func Configure(cfg *config.Config) {
	Init(os.Stdout, cfg.Server.Env != constant.ServerEnvProduction)
	SetLogLevel(cfg)

	log.Logger = log.With().Str("app", cfg.App.Name).Logger()
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

func SetLogLevel(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.TraceLevel
		log.Trace().Str("loglevel", level.String()).Msg("Environment has no log level set up, using default.")
	} else {
		log.Trace().Str("loglevel", level.String()).Msg("Desired log level detected.")
	}

	zerolog.SetGlobalLevel(level)
}
