// Package notify holds the notification sinks the dispatcher delivers to.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes notifications to the process log. It is the default sink
// when no mail transport is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(_ context.Context, recipient, subject, body string) error {
	s.log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}
