package simulation

import (
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketsim/internal/metrics"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithMetrics records progress into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Simulation) { s.metrics = m }
}

// WithSettler installs the settlement hook.
func WithSettler(st Settler) Option {
	return func(s *Simulation) { s.settler = st }
}

// WithRecorder adds a snapshot recorder. Recorders run in the order they
// were added; name labels failures in logs and metrics.
func WithRecorder(name string, r Recorder) Option {
	return func(s *Simulation) { s.recorders = append(s.recorders, namedRecorder{name: name, rec: r}) }
}

// WithPace waits d between days so observers can follow a run in real time.
func WithPace(d time.Duration) Option {
	return func(s *Simulation) { s.pace = d }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(s *Simulation) { s.runID = id }
}
