package domain

import "fmt"

// SimStatus is the lifecycle state of a simulation.
type SimStatus int

const (
	StatusNotStarted SimStatus = iota
	StatusRunning
	StatusCompleted
)

func (s SimStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s SimStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Pub/sub channel and stream names used to fan out simulation progress.
const (
	ChannelDay    = "sim:day"
	ChannelStatus = "sim:status"
	StreamDays    = "sim:days"
)
