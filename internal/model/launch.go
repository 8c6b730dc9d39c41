package model

import "time"

// ModelAvailability is the state of the model list for a profile and task.
type ModelAvailability int

const (
	// ModelsLoading means the model list has not resolved yet.
	ModelsLoading ModelAvailability = iota
	// ModelsReady means there is at least one model available.
	ModelsReady
	// ModelsUnavailable means the model list resolved empty or failed.
	ModelsUnavailable
)

func (m ModelAvailability) String() string {
	switch m {
	case ModelsLoading:
		return "loading"
	case ModelsReady:
		return "ready"
	case ModelsUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// LaunchPhase is the phase of the launch lifecycle.
type LaunchPhase string

const (
	LaunchPhaseIdle      LaunchPhase = "idle"
	LaunchPhaseModalOpen LaunchPhase = "modal-open"
	LaunchPhaseLaunching LaunchPhase = "launching"
	LaunchPhaseSuccess   LaunchPhase = "success"
	LaunchPhaseFailed    LaunchPhase = "failed"
)

// LaunchState is the visible state of a launch attempt.
// At most one of IsLaunching and LaunchSuccess is true at a time.
type LaunchState struct {
	IsLaunching   bool
	LaunchSuccess bool
	// LaunchError is set only when the latest attempt failed and was not dismissed.
	LaunchError error
}

// ServiceHandle is what the backend returns after a successful launch.
type ServiceHandle struct {
	ID       string
	Name     string
	Endpoint string
}

// LaunchRecord is a launch attempt stored in the local history.
type LaunchRecord struct {
	ID        string
	Profile   string
	Task      TaskType
	Options   ContainerOptions
	ServiceID string
	Error     string
	CreatedAt time.Time
}

// Succeeded returns true if the attempt created a service.
func (r LaunchRecord) Succeeded() bool { return r.Error == "" }
