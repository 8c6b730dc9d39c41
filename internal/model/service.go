package model

import "time"

// ServiceStatus is the status reported by the backend for a service.
type ServiceStatus string

const (
	ServiceStatusPending ServiceStatus = "pending"
	ServiceStatusRunning ServiceStatus = "running"
	ServiceStatusStopped ServiceStatus = "stopped"
	ServiceStatusFailed  ServiceStatus = "failed"
)

// Service is a running (or recently running) compute service instance.
type Service struct {
	ID        string
	Name      string
	Task      TaskType
	Model     string
	Status    ServiceStatus
	Endpoint  string
	CreatedAt time.Time
}

// Model is an inference model available on a profile.
type Model struct {
	ID        string
	Name      string
	Task      TaskType
	SizeBytes int64
}
