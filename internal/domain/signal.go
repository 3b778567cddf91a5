package domain

import "time"

// SignalKind classifies entries in a session's signal log.
type SignalKind string

const (
	SignalStarted SignalKind = "started"
	SignalCheck   SignalKind = "check"
	SignalOpened  SignalKind = "opened"
	SignalClosed  SignalKind = "closed"
	SignalStopped SignalKind = "stopped"
)

// Signal is one entry in the bounded, append-only session trace.
type Signal struct {
	Time    time.Time  `json:"time"`
	Kind    SignalKind `json:"kind"`
	Message string     `json:"message"`
}
