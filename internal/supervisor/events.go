package supervisor

import "github.com/rs/zerolog"

// Event represents a supervisor lifecycle event.
// Minimal and stable: name + model path and optional fields via key/values.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
}

// Event names published by the supervisor.
const (
	EventSpawnStart      = "spawn_start"
	EventSpawnReady      = "spawn_ready"
	EventSpawnTimeout    = "spawn_timeout"
	EventSpawnExit       = "spawn_exit"
	EventAccelFallback   = "accel_fallback"
	EventHealthDegraded  = "health_degraded"
	EventHealthRecovered = "health_recovered"
	EventStop            = "stop"
)

// EventPublisher receives events from the supervisor. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes lifecycle events to a structured logger. The
// daemon installs it so crashes and fallbacks show up in the log even
// when no client is watching status.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(e Event) {
	lvl := zerolog.InfoLevel
	switch e.Name {
	case EventSpawnTimeout, EventHealthDegraded:
		lvl = zerolog.WarnLevel
	case EventSpawnExit:
		if crashed, _ := e.Fields["crashed"].(bool); crashed {
			lvl = zerolog.WarnLevel
		}
	}
	p.log.WithLevel(lvl).Str("event", e.Name).Str("model", e.Model).Fields(e.Fields).Msg("lifecycle")
}
