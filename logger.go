package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"signal-directory/directory"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func SetupLogger(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

type ConnectionLogger struct {
	zerolog zerolog.Logger
}

func GetConnectionLogger(ip string, id directory.ConnectionID) ConnectionLogger {
	return ConnectionLogger{log.With().Str("ip", ip).Str("connection-id", string(id)).Logger()}
}

func (l ConnectionLogger) Admitted() {
	l.zerolog.Info().Msg("Connection admitted")
}

func (l ConnectionLogger) Disconnected() {
	l.zerolog.Info().Msg("Connection closed")
}

func (l ConnectionLogger) RejectedMessage(err error) {
	l.zerolog.Debug().Err(err).Msg("Ignoring message")
}

func (l ConnectionLogger) RequestFailed(kind string, err error) {
	l.zerolog.Debug().Err(err).Str("request", kind).Msg("Request not applied")
}

func LogRefusedConnection(ip string, err error) {
	log.Info().Err(err).Str("ip", ip).Msg("Refused connection")
}

func LogStartedServer(port string) {
	log.Info().Msgf("Starting server on port %v", port)
}

func LogErrorWhileUpgradingHTTP(err error) {
	log.Error().Err(err).Msg("Error while upgrading HTTP")
}
