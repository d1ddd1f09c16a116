package analytics

import (
	"context"
	"strings"

	"pet-health-tracker/internal/platform/logger"
)

// LogSink escribe los eventos en el log. Se usa en dev cuando no hay collector.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{log: l.With(map[string]any{"component": "analytics"})}
}

func (s *LogSink) Record(_ context.Context, event string, properties map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return ErrEventRequired
	}

	fields := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		fields[k] = v
	}
	fields["event"] = event

	s.log.Debug("analytics event", fields)
	return nil
}
