package llm

import "github.com/rs/zerolog/log"

// restyLogger routes resty's internal messages to the global zerolog logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	log.Error().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...any) {
	log.Warn().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...any) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}
