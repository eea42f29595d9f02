package events

import "time"

// RunCompletedEvent is published after every compute request that produced
// a result, including projects with errored entries.
type RunCompletedEvent struct {
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	Engine    string    `json:"engine"`
	Matrices  int       `json:"matrices"`
	Pass      *bool     `json:"pass,omitempty"`
	MaxDelta  float64   `json:"max_delta"`
	Errored   int       `json:"errored"`
	Timestamp time.Time `json:"timestamp"`
}

// RunFailedEvent is published when a single-matrix request was rejected.
type RunFailedEvent struct {
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	ErrorKind string    `json:"error_kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type OracleStatusEvent struct {
	Engine    string    `json:"engine"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
