package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger tagged with a component name under the "cmp" key.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForChannel creates a component logger that also carries the channel name.
func ForChannel(component, channel string) zerolog.Logger {
	return log.With().Str("cmp", component).Str("channel", channel).Logger()
}
